//go:build !linux

package client

// MicrophonePermission defers to the OS prompt on platforms that gate the
// microphone themselves; a refusal surfaces as a capture failure.
func MicrophonePermission() bool {
	return true
}
