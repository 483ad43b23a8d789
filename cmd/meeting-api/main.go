// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package main is the meeting service API. It receives video platform
// webhooks that drive the meeting lifecycle state machine and runs the
// transcript processing worker.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/agentmeet/meeting-service/internal/handlers"
	"github.com/agentmeet/meeting-service/internal/infrastructure/chat"
	"github.com/agentmeet/meeting-service/internal/infrastructure/llm"
	"github.com/agentmeet/meeting-service/internal/infrastructure/messaging"
	"github.com/agentmeet/meeting-service/internal/infrastructure/platform"
	"github.com/agentmeet/meeting-service/internal/infrastructure/webhook"
	"github.com/agentmeet/meeting-service/internal/logging"
	"github.com/agentmeet/meeting-service/internal/service"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// External collaborators
	platformClient := platform.NewClient(env.Platform.BaseURL, env.Platform.APIKey)
	chatClient := chat.NewClient(env.Platform.ChatBaseURL, env.Platform.APIKey)
	llmClient := llm.NewClient(env.LLM.BaseURL, env.LLM.APIKey, env.LLM.Model)
	validator := webhook.NewSignatureValidator(env.WebhookSecret)
	messageBuilder := &messaging.MessageBuilder{NatsConn: natsConn}

	// Initialize services
	lifecycleService := service.NewMeetingLifecycleService(
		repos.Meeting,
		repos.Agent,
		platformClient,
		messageBuilder,
		messageBuilder,
	)
	correlationService := service.NewCorrelationService(repos.Meeting, platformClient)
	terminationService := service.NewTerminationService(
		repos.Meeting,
		repos.Agent,
		platformClient,
		lifecycleService,
	)
	chatService := service.NewChatService(
		repos.Meeting,
		repos.Agent,
		chatClient,
		llmClient,
	)
	pipeline := service.NewTranscriptPipeline(
		repos.PipelineState,
		repos.Meeting,
		repos.User,
		repos.Agent,
		platformClient,
		llmClient,
		lifecycleService,
	)
	webhookService := service.NewWebhookService(
		validator,
		correlationService,
		lifecycleService,
		terminationService,
		chatService,
	)

	// Initialize handlers
	jobHandler := handlers.NewTranscriptJobHandler(pipeline)

	readyCheck := func() bool {
		return natsConn.IsConnected() && webhookService.ServiceReady() && jobHandler.HandlerReady()
	}

	httpServer := setupHTTPServer(flags, webhookService, lifecycleService, env.Cleanup, readyCheck, &gracefulCloseWG)

	// Create NATS subscriptions for the transcript work queue.
	err = createNatsSubscriptions(ctx, jobHandler, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)
}
