// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/logging"
	"github.com/agentmeet/meeting-service/internal/middleware"
	"github.com/agentmeet/meeting-service/internal/service"
)

// httpStatusForError maps domain error types to HTTP status codes. Guard
// failures acknowledge with 200 so the platform does not retry deliveries
// that lost an expected race.
func httpStatusForError(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeGuardFailed:
		return http.StatusOK
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// webhookEndpoint handles POST /webhooks/video. The response status reflects
// the synchronous processing outcome so the platform retries only deliveries
// that failed for a retryable reason.
func webhookEndpoint(webhookService *service.WebhookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, ok := middleware.GetRawBodyFromContext(ctx)
		if !ok {
			// Middleware not in the chain; fall back to reading directly.
			var err error
			body, err = io.ReadAll(r.Body)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
				return
			}
		}

		req := service.WebhookRequest{
			Signature: r.Header.Get("X-Signature"),
			Body:      body,
		}

		err := webhookService.HandleWebhookEvent(ctx, req)
		if err != nil {
			status := httpStatusForError(err)
			if status >= 500 {
				slog.ErrorContext(ctx, "webhook processing failed", logging.ErrKey, err)
			} else {
				slog.WarnContext(ctx, "webhook rejected", logging.ErrKey, err, "status", status)
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// cleanupEndpoint handles POST /internal/cleanup, sweeping stale meetings.
// Intended to be invoked by a cron-style scheduler.
func cleanupEndpoint(lifecycle *service.MeetingLifecycleService, cfg cleanupConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().UTC()

		cleaned, err := lifecycle.CleanupStale(ctx,
			now.Add(-cfg.UpcomingStaleAfter),
			now.Add(-cfg.ProcessingStaleAfter),
		)
		if err != nil {
			slog.ErrorContext(ctx, "cleanup sweep failed", logging.ErrKey, err)
			writeJSON(w, httpStatusForError(err), map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]int{"cleaned": cleaned})
	}
}

// setupHTTPServer builds the HTTP server with routes and middleware and
// starts listening in a goroutine.
func setupHTTPServer(
	flags flags,
	webhookService *service.WebhookService,
	lifecycle *service.MeetingLifecycleService,
	cleanup cleanupConfig,
	readyCheck func() bool,
	gracefulCloseWG *sync.WaitGroup,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhooks/video", webhookEndpoint(webhookService))
	mux.HandleFunc("POST /internal/cleanup", cleanupEndpoint(lifecycle, cleanup))

	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !readyCheck() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})

	var handler http.Handler = mux
	handler = middleware.WebhookBodyCaptureMiddleware()(handler)
	handler = middleware.RequestLoggerMiddleware()(handler)

	addr := flags.Bind + ":" + flags.Port
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("HTTP server error")
		}
	}()

	return httpServer
}
