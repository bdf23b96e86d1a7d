package speech

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const transcribePrompt = "Transcribe this audio verbatim. Reply with the transcript only."

type geminiConfig struct {
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	MIMEType string `json:"mime_type"`
}

type geminiTranscriber struct {
	cfg geminiConfig
}

func init() {
	Register("gemini", createGeminiTranscriber)
}

func createGeminiTranscriber(args interface{}) (Transcriber, error) {
	c := geminiConfig{}
	if err := decodeConfig(args, &c); err != nil {
		return nil, err
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("gemini speech api_key is required")
	}
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.MIMEType == "" {
		c.MIMEType = "audio/webm"
	}
	return &geminiTranscriber{cfg: c}, nil
}

func (g *geminiTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(audio, g.cfg.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoTranscript
	}
	return text, nil
}
