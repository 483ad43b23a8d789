// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
	"github.com/agentmeet/meeting-service/pkg/concurrent"
)

// Pipeline step names. Each completed step caches its output in the durable
// pipeline state, keyed by these names, so a retried job resumes after the
// last completed step.
const (
	stepFetch     = "fetch"
	stepParse     = "parse"
	stepSpeakers  = "speakers"
	stepFormat    = "format"
	stepSummarize = "summarize"
	stepPersist   = "persist"
)

const (
	// unknownSpeakerName labels utterances whose speaker ID resolves to
	// neither a user nor an agent.
	unknownSpeakerName = "Unknown"

	// maxStepTries bounds the in-process retries of the network steps
	// (fetch, summarize) within a single job run.
	maxStepTries = 4
)

// TranscriptPipeline turns a raw transcript export into a stored meeting
// summary. It runs as a queue worker consuming transcript processing jobs.
// Every step is durable and idempotent: outputs are cached in the pipeline
// state store, so a crashed or redelivered job resumes rather than repeating
// completed work (in particular, the LLM is never paid twice for the same
// meeting).
type TranscriptPipeline struct {
	pipelineRepo domain.PipelineStateRepository
	meetingRepo  domain.MeetingRepository
	userRepo     domain.UserRepository
	agentRepo    domain.AgentRepository
	fetcher      domain.TranscriptFetcher
	llm          domain.LLMClient
	lifecycle    *MeetingLifecycleService
	pool         *concurrent.WorkerPool
}

// NewTranscriptPipeline creates a transcript pipeline.
func NewTranscriptPipeline(
	pipelineRepo domain.PipelineStateRepository,
	meetingRepo domain.MeetingRepository,
	userRepo domain.UserRepository,
	agentRepo domain.AgentRepository,
	fetcher domain.TranscriptFetcher,
	llm domain.LLMClient,
	lifecycle *MeetingLifecycleService,
) *TranscriptPipeline {
	return &TranscriptPipeline{
		pipelineRepo: pipelineRepo,
		meetingRepo:  meetingRepo,
		userRepo:     userRepo,
		agentRepo:    agentRepo,
		fetcher:      fetcher,
		llm:          llm,
		lifecycle:    lifecycle,
		pool:         concurrent.NewWorkerPool(4),
	}
}

// ServiceReady checks if the pipeline's collaborators are wired.
func (p *TranscriptPipeline) ServiceReady() bool {
	return p.pipelineRepo != nil && p.meetingRepo != nil && p.fetcher != nil &&
		p.llm != nil && p.lifecycle != nil
}

// pipelineRun carries the mutable state of one job execution.
type pipelineRun struct {
	state    *models.PipelineState
	revision uint64
}

// Run executes the pipeline for one job. Safe to call repeatedly for the
// same meeting.
func (p *TranscriptPipeline) Run(ctx context.Context, job models.TranscriptProcessingMessage) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", job.MeetingUID))
	ctx = logging.AppendCtx(ctx, slog.String("job_id", job.JobID))

	run, err := p.loadRun(ctx, job)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "transcript pipeline run starting", "attempt", run.state.Attempts)

	raw, err := stepCached(ctx, p, run, stepFetch, func() ([]byte, error) {
		return p.fetchTranscript(ctx, run.state.TranscriptURL)
	})
	if err != nil {
		return err
	}

	items, err := stepCached(ctx, p, run, stepParse, func() ([]models.TranscriptItem, error) {
		parsed, err := models.ParseTranscriptJSONL(raw)
		if err != nil {
			return nil, domain.NewValidationError("transcript parse failed", err)
		}
		return parsed, nil
	})
	if err != nil {
		return err
	}

	names, err := stepCached(ctx, p, run, stepSpeakers, func() (map[string]string, error) {
		return p.resolveSpeakers(ctx, items)
	})
	if err != nil {
		return err
	}

	formatted, err := stepCached(ctx, p, run, stepFormat, func() (string, error) {
		return formatTranscript(items, names), nil
	})
	if err != nil {
		return err
	}

	summary, err := stepCached(ctx, p, run, stepSummarize, func() (string, error) {
		return p.summarize(ctx, formatted)
	})
	if err != nil {
		return err
	}

	_, err = stepCached(ctx, p, run, stepPersist, func() (bool, error) {
		return p.persist(ctx, job.MeetingUID, summary)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "transcript pipeline run finished")
	return nil
}

// loadRun loads or creates the durable state for the meeting's pipeline and
// bumps the attempt counter.
func (p *TranscriptPipeline) loadRun(ctx context.Context, job models.TranscriptProcessingMessage) (*pipelineRun, error) {
	state, revision, err := p.pipelineRepo.GetPipelineStateWithRevision(ctx, job.MeetingUID)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, err
		}

		now := time.Now().UTC()
		state = &models.PipelineState{
			JobID:         job.JobID,
			MeetingUID:    job.MeetingUID,
			TranscriptURL: job.TranscriptURL,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := p.pipelineRepo.CreatePipelineState(ctx, state); err != nil {
			return nil, err
		}
		state, revision, err = p.pipelineRepo.GetPipelineStateWithRevision(ctx, job.MeetingUID)
		if err != nil {
			return nil, err
		}
	}

	state.Attempts++
	state.UpdatedAt = time.Now().UTC()
	revision, err = p.pipelineRepo.UpdatePipelineState(ctx, state, revision)
	if err != nil {
		return nil, err
	}

	return &pipelineRun{state: state, revision: revision}, nil
}

// stepCached returns the step's cached output if a prior run completed it,
// otherwise computes it and persists the output before returning.
func stepCached[T any](ctx context.Context, p *TranscriptPipeline, run *pipelineRun, step string, fn func() (T, error)) (T, error) {
	var result T

	if cached, ok := run.state.StepOutput(step); ok {
		if err := json.Unmarshal(cached, &result); err != nil {
			return result, domain.NewInternalError(
				fmt.Sprintf("corrupt cached output for step %s", step), err)
		}
		slog.DebugContext(ctx, "pipeline step restored from cache", "step", step)
		return result, nil
	}

	result, err := fn()
	if err != nil {
		return result, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return result, domain.NewInternalError(
			fmt.Sprintf("failed to encode output of step %s", step), err)
	}

	run.state.SetStepOutput(step, encoded)
	run.state.UpdatedAt = time.Now().UTC()
	revision, err := p.pipelineRepo.UpdatePipelineState(ctx, run.state, run.revision)
	if err != nil {
		return result, err
	}
	run.revision = revision

	slog.DebugContext(ctx, "pipeline step completed", "step", step)
	return result, nil
}

// fetchTranscript downloads the export with exponential backoff. Internal
// errors (bad URL, request construction) are permanent; unavailability is
// retried.
func (p *TranscriptPipeline) fetchTranscript(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, domain.NewValidationError("pipeline state carries no transcript URL")
	}

	return backoff.Retry(ctx, func() ([]byte, error) {
		data, err := p.fetcher.FetchTranscript(ctx, url)
		if err != nil && domain.GetErrorType(err) != domain.ErrorTypeUnavailable {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxStepTries))
}

// resolveSpeakers maps the transcript's speaker IDs to display names by
// looking them up as users and agents concurrently.
func (p *TranscriptPipeline) resolveSpeakers(ctx context.Context, items []models.TranscriptItem) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, item := range items {
		if item.SpeakerID != "" && !seen[item.SpeakerID] {
			seen[item.SpeakerID] = true
			ids = append(ids, item.SpeakerID)
		}
	}

	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var (
		users  []*models.User
		agents []*models.Agent
	)
	err := p.pool.Run(ctx,
		func() error {
			var err error
			users, err = p.userRepo.GetUsersByUIDs(ctx, ids)
			return err
		},
		func() error {
			var err error
			agents, err = p.agentRepo.GetAgentsByUIDs(ctx, ids)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		names[user.UID] = user.Name
	}
	for _, agent := range agents {
		names[agent.UID] = agent.Name
	}

	return names, nil
}

// formatTranscript renders the items one per line with a relative timestamp
// label and the resolved speaker name. Offsets are relative to the first
// parseable timestamp; items without one are labeled by position instead.
func formatTranscript(items []models.TranscriptItem, names map[string]string) string {
	var base time.Time
	haveBase := false
	for _, item := range items {
		if t, ok := item.StartTS.Time(); ok {
			base = t
			haveBase = true
			break
		}
	}

	var b strings.Builder
	for i, item := range items {
		label := fmt.Sprintf("#%d", i+1)
		if t, ok := item.StartTS.Time(); ok && haveBase {
			label = formatOffset(t.Sub(base))
		}

		name := names[item.SpeakerID]
		if name == "" {
			name = unknownSpeakerName
		}

		fmt.Fprintf(&b, "[%s] %s: %s\n", label, name, item.Text)
	}

	return b.String()
}

// formatOffset renders a duration as MM:SS, or HH:MM:SS past the hour.
func formatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// summarize asks the LLM for the meeting summary with exponential backoff
// on transient failures.
func (p *TranscriptPipeline) summarize(ctx context.Context, formatted string) (string, error) {
	if strings.TrimSpace(formatted) == "" {
		// An empty transcript still completes the meeting; there is just
		// nothing to summarize.
		return "", nil
	}

	return backoff.Retry(ctx, func() (string, error) {
		summary, err := p.llm.Complete(ctx, summarySystemPrompt, []domain.ChatTurn{
			{Role: domain.ChatRoleUser, Content: formatted},
		})
		if err != nil && domain.GetErrorType(err) != domain.ErrorTypeUnavailable {
			return "", backoff.Permanent(err)
		}
		return summary, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxStepTries))
}

// persist completes the meeting with the summary. A guard failure means
// another run already completed it, which is success for an idempotent
// pipeline.
func (p *TranscriptPipeline) persist(ctx context.Context, meetingUID, summary string) (bool, error) {
	err := p.lifecycle.CompleteWithSummary(ctx, meetingUID, summary)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeGuardFailed {
			slog.InfoContext(ctx, "meeting already completed, treating persist as done")
			return true, nil
		}
		return false, err
	}
	return true, nil
}
