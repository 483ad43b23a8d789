// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/infrastructure/messaging"
	"github.com/agentmeet/meeting-service/internal/infrastructure/store"
	"github.com/agentmeet/meeting-service/internal/logging"
)

const natsConnectTimeout = 10 * time.Second

// setupNATS establishes the NATS connection with reconnection handling and
// registers a drain on shutdown.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Timeout(natsConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.WarnContext(ctx, "NATS disconnected", logging.ErrKey, err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed")
			gracefulCloseWG.Done()
		}),
	)
	if err != nil {
		return nil, err
	}

	// Account for the closed handler firing during shutdown.
	gracefulCloseWG.Add(1)

	slog.InfoContext(ctx, "connected to NATS", "url", env.NatsURL)
	return natsConn, nil
}

// repositories bundles the NATS KV backed repositories for the service.
type repositories struct {
	Meeting       *store.NatsMeetingRepository
	Agent         *store.NatsAgentRepository
	User          *store.NatsUserRepository
	PipelineState *store.NatsPipelineStateRepository
}

// getKeyValueStores opens (creating if needed) the KV buckets the service
// uses and wraps them in repositories.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := map[string]jetstream.KeyValue{}
	for _, name := range []string{
		store.KVStoreNameMeetings,
		store.KVStoreNameAgents,
		store.KVStoreNameUsers,
		store.KVStoreNameMeetingPipelineState,
	} {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: name,
		})
		if err != nil {
			return nil, err
		}
		buckets[name] = kv
	}

	return &repositories{
		Meeting:       store.NewNatsMeetingRepository(buckets[store.KVStoreNameMeetings]),
		Agent:         store.NewNatsAgentRepository(buckets[store.KVStoreNameAgents]),
		User:          store.NewNatsUserRepository(buckets[store.KVStoreNameUsers]),
		PipelineState: store.NewNatsPipelineStateRepository(buckets[store.KVStoreNameMeetingPipelineState]),
	}, nil
}

// createNatsSubscriptions subscribes the job handler to the transcript
// processing work queue. The queue group ensures one worker per job across
// service instances.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	for subject, queue := range map[string]string{
		models.TranscriptProcessingSubject: models.TranscriptProcessingQueue,
	} {
		_, err := natsConn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, messaging.NewNatsMessage(msg))
		})
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "subscribed to NATS subject", "subject", subject, "queue", queue)
	}

	return nil
}

// gracefulShutdown drains the HTTP server and the NATS connection.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down HTTP server")
	}

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	gracefulCloseWG.Wait()
	slog.Info("shutdown complete")
}
