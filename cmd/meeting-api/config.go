// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/agentmeet/meeting-service/internal/logging"
)

// flags are the command line flags for the meeting service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the meeting service.
type environment struct {
	Port          string
	NatsURL       string
	WebhookSecret string
	Platform      platformConfig
	LLM           llmConfig
	Cleanup       cleanupConfig
}

// platformConfig holds the video platform API configuration.
type platformConfig struct {
	BaseURL     string
	APIKey      string
	ChatBaseURL string
}

// llmConfig holds the language model API configuration.
type llmConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// cleanupConfig holds the staleness cutoffs for the cleanup endpoint.
type cleanupConfig struct {
	UpcomingStaleAfter   time.Duration
	ProcessingStaleAfter time.Duration
}

// parseFlags parses command line flags for the meeting service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the meeting service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	webhookSecret := os.Getenv("WEBHOOK_SECRET")
	if webhookSecret == "" {
		slog.Error("WEBHOOK_SECRET environment variable is required but not set")
		os.Exit(1)
	}

	return environment{
		Port:          port,
		NatsURL:       natsURL,
		WebhookSecret: webhookSecret,
		Platform:      parsePlatformConfig(),
		LLM:           parseLLMConfig(),
		Cleanup:       parseCleanupConfig(),
	}
}

// parsePlatformConfig parses the video platform configuration from
// environment variables.
func parsePlatformConfig() platformConfig {
	baseURL := os.Getenv("PLATFORM_BASE_URL")
	if baseURL == "" {
		slog.Error("PLATFORM_BASE_URL environment variable is required but not set")
		os.Exit(1)
	}

	apiKey := os.Getenv("PLATFORM_API_KEY")
	if apiKey == "" {
		slog.Error("PLATFORM_API_KEY environment variable is required but not set")
		os.Exit(1)
	}

	// The chat API usually lives on the same host as the video API.
	chatBaseURL := os.Getenv("CHAT_BASE_URL")
	if chatBaseURL == "" {
		chatBaseURL = baseURL
	}

	return platformConfig{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		ChatBaseURL: chatBaseURL,
	}
}

// parseLLMConfig parses the language model configuration from environment
// variables.
func parseLLMConfig() llmConfig {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Error("OPENAI_API_KEY environment variable is required but not set")
		os.Exit(1)
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	return llmConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
	}
}

// parseCleanupConfig parses the staleness cutoffs from environment
// variables.
func parseCleanupConfig() cleanupConfig {
	cfg := cleanupConfig{
		UpcomingStaleAfter:   24 * time.Hour,
		ProcessingStaleAfter: 2 * time.Hour,
	}

	if v := os.Getenv("UPCOMING_STALE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.With(logging.ErrKey, err, "value", v).Error("invalid UPCOMING_STALE_AFTER, using default")
		} else {
			cfg.UpcomingStaleAfter = d
		}
	}

	if v := os.Getenv("PROCESSING_STALE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.With(logging.ErrKey, err, "value", v).Error("invalid PROCESSING_STALE_AFTER, using default")
		} else {
			cfg.ProcessingStaleAfter = d
		}
	}

	return cfg
}
