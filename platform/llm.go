package platform

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLMClient wraps the OpenAI-compatible endpoint used for both chat
// completions and embeddings.
type LLMClient struct {
	client *openai.Client
	model  string
}

func NewLLMClient(config Config) *LLMClient {
	options := []option.RequestOption{}
	if config.LLMBaseURL != "" {
		options = append(options, option.WithBaseURL(config.LLMBaseURL))
	}
	if config.LLMAPIKey != "" {
		options = append(options, option.WithAPIKey(config.LLMAPIKey))
	}

	client := openai.NewClient(options...)
	return &LLMClient{client: &client, model: config.LLMModel}
}

// Complete runs one chat completion. The configured model is filled in
// when the caller left it empty.
func (llm *LLMClient) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if params.Model == "" {
		params.Model = llm.model
	}

	resp, err := llm.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("client didn't return any content choices")
	}
	return resp, nil
}

// Embed returns one embedding vector per input text.
func (llm *LLMClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := llm.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModelTextEmbedding3Small,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for _, d := range resp.Data {
		if int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
