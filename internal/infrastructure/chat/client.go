// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package chat is the HTTP client for the platform's chat channels.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

const defaultRequestTimeout = 30 * time.Second

// Client implements domain.ChatProvider against the platform's chat API.
// Chat channels share their ID with the meeting they belong to.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a chat client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

type messagesResponse struct {
	Messages []struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Text string `json:"text"`
	} `json:"messages"`
}

// RecentMessages returns up to limit messages from the channel, oldest first.
func (c *Client) RecentMessages(ctx context.Context, channelID string, limit int) ([]domain.ChatMessage, error) {
	path := fmt.Sprintf("/chat/channels/%s/messages?limit=%s",
		url.PathEscape(channelID), url.QueryEscape(fmt.Sprint(limit)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, domain.NewInternalError("failed to build chat request", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "chat request failed", logging.ErrKey, err, "channel_id", channelID)
		return nil, domain.NewUnavailableError("chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUnavailableError(
			fmt.Sprintf("chat api returned status %d", resp.StatusCode))
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.NewInternalError("failed to decode chat messages", err)
	}

	messages := make([]domain.ChatMessage, 0, len(decoded.Messages))
	for _, m := range decoded.Messages {
		messages = append(messages, domain.ChatMessage{
			UserID: m.User.ID,
			Text:   m.Text,
		})
	}

	return messages, nil
}

// SendAgentMessage posts a message to the channel attributed to the agent.
func (c *Client) SendAgentMessage(ctx context.Context, channelID string, agent *models.Agent, text string) error {
	payload, err := json.Marshal(map[string]any{
		"user_id": agent.UID,
		"text":    text,
	})
	if err != nil {
		return domain.NewInternalError("failed to marshal chat message", err)
	}

	path := fmt.Sprintf("/chat/channels/%s/messages", url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.NewInternalError("failed to build chat request", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "chat send failed", logging.ErrKey, err, "channel_id", channelID)
		return domain.NewUnavailableError("chat send failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.ErrorContext(ctx, "chat send returned error status",
			"status_code", resp.StatusCode, "response", string(respBody), "channel_id", channelID)
		return domain.NewUnavailableError(
			fmt.Sprintf("chat api returned status %d", resp.StatusCode))
	}

	return nil
}
