package models

type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float32 `json:"confidence"`
}

// RecognitionResult is one provider result with alternatives ranked best first.
type RecognitionResult struct {
	Alternatives []Alternative `json:"alternatives"`
}
