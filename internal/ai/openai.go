// Package ai is a client for the OpenAI speech-to-text and chat completion APIs.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// summarySystemPrompt instructs the chat model to produce a bullet-point summary.
const summarySystemPrompt = "You are a helpful assistant that summarizes podcast transcripts. " +
	"Create a concise summary of the main points discussed in the podcast. " +
	"Include key insights and takeaways in bullet points."

// Client calls the OpenAI API. One call per request, no retry, no streaming.
type Client struct {
	apiKey       string
	whisperModel string // e.g. "whisper-1"
	chatModel    string // e.g. "gpt-3.5-turbo"
	baseURL      string
	client       *http.Client
}

// NewClient creates a new OpenAI client.
func NewClient(apiKey, whisperModel, chatModel string, timeout time.Duration) *Client {
	return &Client{
		apiKey:       apiKey,
		whisperModel: whisperModel,
		chatModel:    chatModel,
		baseURL:      defaultBaseURL,
		client:       &http.Client{Timeout: timeout},
	}
}

// transcriptionResponse is the JSON response from /audio/transcriptions.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads an audio file to the transcription endpoint and returns
// the plain-text transcript. The API wants multipart form data, so the audio
// has to exist as a local file first.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}
	w.WriteField("model", c.whisperModel)
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result transcriptionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.Text, nil
}

// chatMessage is one message in a chat completion request or response.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the JSON response from /chat/completions.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends a transcript through the chat completion endpoint with the
// fixed bullet-point system prompt and returns the generated summary.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	payload := map[string]any{
		"model": c.chatModel,
		"messages": []chatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: "Summarize this podcast transcript: " + transcript},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
