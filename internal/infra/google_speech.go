package infra

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/Vovarama1992/voicetodo/internal/models"
	"google.golang.org/api/option"
)

const (
	sttSampleRate = 16000
	sttChannels   = 1
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleSpeechService calls Cloud Speech-to-Text over gRPC. Credentials come
// from Application Default Credentials unless a file is given.
type GoogleSpeechService struct {
	language  string
	recognize recognizeFunc
	close     func() error
}

func NewGoogleSpeechService(ctx context.Context, language, credentialsFile string) (*GoogleSpeechService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleSpeechService{
		language: language,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		close: client.Close,
	}, nil
}

func (s *GoogleSpeechService) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func (s *GoogleSpeechService) Recognize(ctx context.Context, wav []byte) ([]models.RecognitionResult, error) {
	resp, err := s.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   sttSampleRate,
			AudioChannelCount: sttChannels,
			LanguageCode:      s.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google speech recognize: %w", err)
	}

	out := make([]models.RecognitionResult, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		res := models.RecognitionResult{}
		for _, a := range r.GetAlternatives() {
			res.Alternatives = append(res.Alternatives, models.Alternative{
				Transcript: a.GetTranscript(),
				Confidence: a.GetConfidence(),
			})
		}
		out = append(out, res)
	}
	return out, nil
}
