// Package openrouter is a minimal client for the OpenRouter chat completions
// API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Client sends rendered prompts to OpenRouter for diagnosis.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the given model. An empty baseURL means the
// public OpenRouter endpoint.
func NewClient(apiKey, model, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// BackendError is a non-success or malformed response from the model backend.
// It carries the status and response body so a human can spot a bad key or
// model id; it never contains the API key itself.
type BackendError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model backend error: %s - %s", e.Status, e.Body)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Diagnose sends the prompt as a single user-role message and returns the
// model's answer. Exactly one attempt is made; the caller decides how to
// degrade on failure.
func (c *Client) Diagnose(ctx context.Context, promptText string) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: promptText}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &BackendError{StatusCode: resp.StatusCode, Status: resp.Status, Body: "unparseable response body"}
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &BackendError{StatusCode: resp.StatusCode, Status: resp.Status, Body: "missing content"}
	}

	return parsed.Choices[0].Message.Content, nil
}
