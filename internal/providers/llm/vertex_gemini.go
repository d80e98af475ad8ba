package llm

import (
	"context"
	"errors"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
	mode   Mode
}

type VertexGeminiConfig struct {
	ProjectID       string
	Location        string
	ModelName       string
	SystemPrompt    string
	MaxOutputTokens int32
	Mode            Mode
}

func NewVertexGemini(ctx context.Context, cfg VertexGeminiConfig) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, err
	}

	name := cfg.ModelName
	if name == "" {
		name = "gemini-2.5-flash"
	}

	m := c.GenerativeModel(name)
	if cfg.SystemPrompt != "" {
		m.SystemInstruction = &vertexgenai.Content{
			Parts: []vertexgenai.Part{vertexgenai.Text(cfg.SystemPrompt)},
		}
	}
	if cfg.MaxOutputTokens > 0 {
		m.GenerationConfig.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeStatelessContext
	}

	return &VertexGemini{client: c, model: m, mode: mode}, nil
}

func (v *VertexGemini) Mode() Mode   { return v.mode }
func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (v *VertexGemini) StartChat() Chat {
	return &vertexChat{cs: v.model.StartChat()}
}

type vertexChat struct {
	cs *vertexgenai.ChatSession
}

func (c *vertexChat) Send(ctx context.Context, message string) (string, error) {
	resp, err := c.cs.SendMessage(ctx, vertexgenai.Text(message))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func firstText(resp *vertexgenai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
				return string(t), nil
			}
		}
	}
	return "", errors.New("empty model response")
}
