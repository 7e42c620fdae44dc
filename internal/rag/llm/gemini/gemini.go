package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/httppool"
	"github.com/anvikal/ragchat/internal/rag/llm"
	"github.com/anvikal/ragchat/pkg/logx"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logx.Logger
var geminiClient *llmClient
var once sync.Once

// GetClient returns the process-wide Gemini provider, nil when the client
// could not be created. Callers are expected to wrap it with llm.WithRetry.
func GetClient(ctx context.Context, apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logx.New("llm_gemini")
		newGeminiClient(ctx, apikey, modelName)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, apikey string, modelName string) {
	if apikey == "" {
		logger.Error("GOOGLE_API_KEY is not set, LLM client unavailable")
		return
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, HTTPClient: httppool.Shared()})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
	go closeClient(ctx, geminiClient)
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), generationConfig())
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Stream forwards text to onChunk as it arrives and returns the full
// accumulated response. On mid-stream failure the accumulated prefix is
// returned alongside the error so the caller can persist what the user
// already saw.
func (c *llmClient) Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	var full strings.Builder

	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.modelName, genai.Text(prompt), generationConfig()) {
		if err != nil {
			return full.String(), err
		}
		text := resp.Text()
		if text != "" {
			full.WriteString(text)
			onChunk(text)
		}
	}
	return full.String(), nil
}

func generationConfig() *genai.GenerateContentConfig {
	temperature := config.ModelTemperature
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: config.SystemPrompt}},
		},
		Temperature: &temperature,
	}
}

func closeClient(ctx context.Context, client *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	client.client = nil
	client.modelName = ""
}
