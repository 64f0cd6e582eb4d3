package infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

const defaultSpeechEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleSpeechRESTService calls speech:recognize over HTTP with an API key,
// sending the audio base64-encoded in the JSON body.
type GoogleSpeechRESTService struct {
	apiKey   string
	endpoint string
	language string
	client   *http.Client
}

func NewGoogleSpeechRESTService(apiKey, endpoint, language string) *GoogleSpeechRESTService {
	if endpoint == "" {
		endpoint = defaultSpeechEndpoint
	}
	return &GoogleSpeechRESTService{
		apiKey:   apiKey,
		endpoint: endpoint,
		language: language,
		client:   http.DefaultClient,
	}
}

type restRecognizeRequest struct {
	Config struct {
		Encoding          string `json:"encoding"`
		SampleRateHertz   int    `json:"sampleRateHertz"`
		AudioChannelCount int    `json:"audioChannelCount"`
		LanguageCode      string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type restRecognizeResponse struct {
	Results []models.RecognitionResult `json:"results"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (s *GoogleSpeechRESTService) Recognize(ctx context.Context, wav []byte) ([]models.RecognitionResult, error) {
	var body restRecognizeRequest
	body.Config.Encoding = "LINEAR16"
	body.Config.SampleRateHertz = sttSampleRate
	body.Config.AudioChannelCount = sttChannels
	body.Config.LanguageCode = s.language
	body.Audio.Content = base64.StdEncoding.EncodeToString(wav)

	j, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u := s.endpoint + "?key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(j))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google speech request: %w", err)
	}
	defer resp.Body.Close()

	rawResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google speech read: %w", err)
	}

	var parsed restRecognizeResponse
	decodeErr := json.Unmarshal(rawResp, &parsed)

	if parsed.Error != nil {
		return nil, fmt.Errorf("google speech %s (%d): %s", parsed.Error.Status, parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google speech http %d", resp.StatusCode)
	}
	// a 200 that is not a recognize response must not read as silence
	if decodeErr != nil {
		return nil, fmt.Errorf("google speech decode: %w", decodeErr)
	}

	return parsed.Results, nil
}
