package client

import "golang.org/x/sys/unix"

const soundDevices = "/dev/snd"

// MicrophonePermission reports whether this user may open the ALSA sound
// devices.
func MicrophonePermission() bool {
	return unix.Access(soundDevices, unix.R_OK|unix.X_OK) == nil
}
