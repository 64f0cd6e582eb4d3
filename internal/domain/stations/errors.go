package stations

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrConversionFailed  = errors.New("audio conversion failed")
	ErrRecognitionFailed = errors.New("speech recognition failed")
)

func trim(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
