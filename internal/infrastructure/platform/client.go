// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package platform is the HTTP client for the external video calling platform.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

const defaultRequestTimeout = 30 * time.Second

// Client calls the video platform's REST API. It implements both
// domain.VideoPlatform and domain.TranscriptFetcher.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a video platform client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

type callStateResponse struct {
	Call struct {
		CID    string               `json:"cid"`
		Custom models.CallCustomData `json:"custom"`
	} `json:"call"`
	Participants []struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	} `json:"participants"`
}

// GetCallState fetches the live state of a call, including the current
// participant roster.
func (c *Client) GetCallState(ctx context.Context, callID string) (*domain.CallState, error) {
	var resp callStateResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/video/calls/%s", callID), nil, nil, &resp)
	if err != nil {
		return nil, err
	}

	state := &domain.CallState{
		CallID:     callID,
		MeetingUID: resp.Call.Custom.MeetingID,
	}
	for _, p := range resp.Participants {
		state.Participants = append(state.Participants, domain.CallParticipant{
			UserID: p.UserID,
			Name:   p.Name,
		})
	}

	return state, nil
}

// EndCall ends the call for all participants.
func (c *Client) EndCall(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/video/calls/%s/end", callID), nil, nil, nil)
}

// ConnectAgent joins the agent into the call as a participant. The
// idempotency key makes retried joins for the same meeting a no-op on the
// platform side.
func (c *Client) ConnectAgent(ctx context.Context, callID string, agent *models.Agent) error {
	body := map[string]any{
		"agent_user_id": agent.UID,
		"instructions":  agent.Instructions,
	}
	headers := map[string]string{
		"Idempotency-Key": fmt.Sprintf("agent-join:%s", callID),
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/video/calls/%s/agent", callID), headers, body, nil)
}

// FetchTranscript downloads a finished transcript from the platform's
// storage URL. Transcript URLs are pre-signed, so no auth header is sent.
func (c *Client) FetchTranscript(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewInternalError("failed to build transcript request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUnavailableError("transcript download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUnavailableError(
			fmt.Sprintf("transcript download returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUnavailableError("error reading transcript body", err)
	}

	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domain.NewInternalError("failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return domain.NewInternalError("failed to build platform request", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "platform request failed", logging.ErrKey, err,
			"method", method, "path", path)
		return domain.NewUnavailableError("video platform request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(fmt.Sprintf("platform resource not found: %s", path))
	case resp.StatusCode >= 400:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.ErrorContext(ctx, "platform request returned error status",
			"method", method, "path", path,
			"status_code", resp.StatusCode, "response", string(respBody))
		return domain.NewUnavailableError(
			fmt.Sprintf("video platform returned status %d", resp.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewInternalError("failed to decode platform response", err)
		}
	}

	return nil
}
