package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleRecognizeURL = "https://speech.googleapis.com/v1/speech:recognize"

type googleConfig struct {
	APIKey       string `json:"api_key"`
	Endpoint     string `json:"endpoint"`
	Encoding     string `json:"encoding"`
	SampleRate   int    `json:"sample_rate_hertz"`
	LanguageCode string `json:"language_code"`
}

// googleTranscriber calls the Speech-to-Text v1 recognize REST endpoint.
type googleTranscriber struct {
	cfg    googleConfig
	client *http.Client
}

func init() {
	Register("google", createGoogleTranscriber)
}

func createGoogleTranscriber(args interface{}) (Transcriber, error) {
	c := googleConfig{}
	if err := decodeConfig(args, &c); err != nil {
		return nil, err
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("google speech api_key is required")
	}
	return newGoogleTranscriber(c, &http.Client{Timeout: 30 * time.Second}), nil
}

func newGoogleTranscriber(c googleConfig, client *http.Client) *googleTranscriber {
	if c.Endpoint == "" {
		c.Endpoint = googleRecognizeURL
	}
	if c.Encoding == "" {
		c.Encoding = "WEBM_OPUS"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "en-US"
	}
	return &googleTranscriber{cfg: c, client: client}
}

type recognizeRequest struct {
	Config struct {
		Encoding        string `json:"encoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
		LanguageCode    string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *googleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body recognizeRequest
	body.Config.Encoding = g.cfg.Encoding
	body.Config.SampleRateHertz = g.cfg.SampleRate
	body.Config.LanguageCode = g.cfg.LanguageCode
	body.Audio.Content = base64.StdEncoding.EncodeToString(audio)
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	endpoint := g.cfg.Endpoint + "?key=" + url.QueryEscape(g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("speech recognize failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("speech recognize failed: %s", out.Error.Message)
	}
	if len(out.Results) == 0 || len(out.Results[0].Alternatives) == 0 {
		return "", ErrNoTranscript
	}
	return out.Results[0].Alternatives[0].Transcript, nil
}
