package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for any OpenAI-compatible chat completions API.
type Client struct {
	APIURL     string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates a new client instance.
func NewClient(apiURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		APIURL: apiURL,
		APIKey: apiKey,
		Model:  model,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type (
	apiRequest struct {
		Model    string    `json:"model"`
		Messages []message `json:"messages"`
	}
	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
)

// Complete sends a single user prompt and returns the model's full response
// text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(apiRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", errors.New("no content received from API")
	}
	return apiResp.Choices[0].Message.Content, nil
}
