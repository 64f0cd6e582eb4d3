package stations

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-audio/wav"
)

const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	TargetBitDepth   = 16

	wavFormatPCM = 1
)

// S3VerifyWAV checks the transcoded file before it is sent anywhere.
type S3VerifyWAV struct{}

func NewS3VerifyWAV() *S3VerifyWAV { return &S3VerifyWAV{} }

// Run returns the size of the file at path. A missing or zero-byte file is
// a conversion failure even when ffmpeg exited cleanly.
func (s *S3VerifyWAV) Run(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[S3][MISSING] path=%s", path)
			return 0, fmt.Errorf("%w: output missing", ErrConversionFailed)
		}
		return 0, fmt.Errorf("%w: stat output: %v", ErrConversionFailed, err)
	}

	size := fi.Size()
	if size == 0 {
		log.Printf("[S3][EMPTY] path=%s", path)
		return 0, fmt.Errorf("%w: output is empty", ErrConversionFailed)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: open output: %v", ErrConversionFailed, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		log.Printf("[S3][INVALID] path=%s bytes=%d", path, size)
		return 0, fmt.Errorf("%w: output is not a wav file", ErrConversionFailed)
	}

	if d.WavAudioFormat != wavFormatPCM ||
		d.NumChans != TargetChannels ||
		d.SampleRate != TargetSampleRate ||
		d.BitDepth != TargetBitDepth {
		log.Printf("[S3][FORMAT] fmt=%d ch=%d rate=%d bits=%d",
			d.WavAudioFormat, d.NumChans, d.SampleRate, d.BitDepth)
		return 0, fmt.Errorf("%w: output is %d ch %d Hz %d bit", ErrConversionFailed,
			d.NumChans, d.SampleRate, d.BitDepth)
	}

	log.Printf("[S3][OK] bytes=%d", size)
	return size, nil
}
