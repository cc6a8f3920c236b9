package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Texts per embeddings request.
const embedBatchSize = 100

// OpenAIClient wraps the embeddings and chat-completions endpoints. The API
// key is passed per call because every tenant brings its own.
type OpenAIClient struct {
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Client         *http.Client
}

func NewOpenAIClient(baseURL, embeddingModel, chatModel string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		EmbeddingModel: embeddingModel,
		ChatModel:      chatModel,
		Client:         &http.Client{Timeout: 90 * time.Second},
	}
}

type embeddingsReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResp struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	Temperature float32   `json:"temperature"`
}

type chatResp struct {
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// Embed returns one vector per input text, preserving order. Requests are
// batched to bound payload size.
func (c *OpenAIClient) Embed(ctx context.Context, apiKey string, texts []string) ([][]float32, error) {
	if c.Client == nil {
		return nil, errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: empty key", ErrCredential)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		body, err := json.Marshal(embeddingsReq{Model: c.EmbeddingModel, Input: texts[start:end]})
		if err != nil {
			return nil, err
		}

		var decoded embeddingsResp
		if err := c.post(ctx, apiKey, c.BaseURL+"/embeddings", body, &decoded); err != nil {
			return nil, err
		}
		if decoded.Error != nil && decoded.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrProvider, decoded.Error.Message)
		}
		if len(decoded.Data) != end-start {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrProvider, end-start, len(decoded.Data))
		}
		for _, d := range decoded.Data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}

// Complete runs a single-turn chat completion with temperature 0.
func (c *OpenAIClient) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	if c.Client == nil {
		return "", errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w: empty key", ErrCredential)
	}

	body, err := json.Marshal(chatReq{
		Model:       c.ChatModel,
		Messages:    []chatMsg{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	var decoded chatResp
	if err := c.post(ctx, apiKey, c.BaseURL+"/chat/completions", body, &decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", ErrProvider, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrProvider)
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) post(ctx context.Context, apiKey, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrCredential, msg)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		default:
			return fmt.Errorf("%w: %s", ErrProvider, msg)
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
