// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/mocks"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "00:00", formatOffset(0))
	assert.Equal(t, "00:05", formatOffset(5*time.Second))
	assert.Equal(t, "01:05", formatOffset(65*time.Second))
	assert.Equal(t, "59:59", formatOffset(59*time.Minute+59*time.Second))
	assert.Equal(t, "01:00:00", formatOffset(time.Hour))
	assert.Equal(t, "01:01:40", formatOffset(time.Hour+100*time.Second))
	assert.Equal(t, "00:00", formatOffset(-3*time.Second))
}

func TestFormatTranscript(t *testing.T) {
	base := time.UnixMilli(1700000000000).UTC()

	t.Run("labels lines relative to the first timestamp", func(t *testing.T) {
		items := []models.TranscriptItem{
			{SpeakerID: "user-1", StartTS: models.NewTranscriptTimestamp(base), Text: "hello"},
			{SpeakerID: "agent-1", StartTS: models.NewTranscriptTimestamp(base.Add(65 * time.Second)), Text: "hi"},
			{SpeakerID: "ghost", StartTS: models.NewTranscriptTimestamp(base.Add(time.Hour + 100*time.Second)), Text: "late"},
		}
		names := map[string]string{
			"user-1":  "Alice",
			"agent-1": "Scribe",
		}

		got := formatTranscript(items, names)
		want := "[00:00] Alice: hello\n[01:05] Scribe: hi\n[01:01:40] Unknown: late\n"
		assert.Equal(t, want, got)
	})

	t.Run("falls back to positional labels without timestamps", func(t *testing.T) {
		items := []models.TranscriptItem{
			{SpeakerID: "user-1", Text: "first"},
			{SpeakerID: "user-1", Text: "second"},
		}

		got := formatTranscript(items, map[string]string{"user-1": "Alice"})
		want := "[#1] Alice: first\n[#2] Alice: second\n"
		assert.Equal(t, want, got)
	})

	t.Run("empty transcript formats to empty string", func(t *testing.T) {
		assert.Equal(t, "", formatTranscript(nil, nil))
	})
}

type pipelineFixture struct {
	pipeline     *TranscriptPipeline
	pipelineRepo *mocks.MockPipelineStateRepository
	meetingRepo  *mocks.MockMeetingRepository
	userRepo     *mocks.MockUserRepository
	agentRepo    *mocks.MockAgentRepository
	fetcher      *mocks.MockTranscriptFetcher
	llm          *mocks.MockLLMClient
	lifecycle    *lifecycleFixture
}

func setupPipeline() *pipelineFixture {
	lifecycle := setupLifecycleService()
	f := &pipelineFixture{
		pipelineRepo: &mocks.MockPipelineStateRepository{},
		meetingRepo:  lifecycle.meetingRepo,
		userRepo:     &mocks.MockUserRepository{},
		agentRepo:    lifecycle.agentRepo,
		fetcher:      &mocks.MockTranscriptFetcher{},
		llm:          &mocks.MockLLMClient{},
		lifecycle:    lifecycle,
	}
	f.pipeline = NewTranscriptPipeline(
		f.pipelineRepo, f.meetingRepo, f.userRepo, f.agentRepo, f.fetcher, f.llm, lifecycle.service,
	)
	return f
}

func transcriptJob() models.TranscriptProcessingMessage {
	return models.TranscriptProcessingMessage{
		JobID:         "job-1",
		MeetingUID:    "meeting-1",
		TranscriptURL: "https://cdn.example.com/t.jsonl",
		EnqueuedAt:    time.Now().UTC(),
	}
}

func TestTranscriptPipelineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh run processes end to end", func(t *testing.T) {
		f := setupPipeline()
		job := transcriptJob()

		raw := []byte(`{"speaker_id":"user-1","start_ts":1700000000000,"text":"hello"}
{"speaker_id":"agent-1","start_ts":1700000065000,"text":"hi"}
`)

		state := &models.PipelineState{
			JobID:         job.JobID,
			MeetingUID:    job.MeetingUID,
			TranscriptURL: job.TranscriptURL,
		}

		// No prior state: create then reload.
		f.pipelineRepo.On("GetPipelineStateWithRevision", mock.Anything, "meeting-1").
			Return(nil, uint64(0), domain.NewNotFoundError("pipeline state not found")).Once()
		f.pipelineRepo.On("CreatePipelineState", mock.Anything, mock.Anything).Return(nil).Once()
		f.pipelineRepo.On("GetPipelineStateWithRevision", mock.Anything, "meeting-1").
			Return(state, uint64(1), nil).Once()
		f.pipelineRepo.On("UpdatePipelineState", mock.Anything, mock.Anything, mock.Anything).
			Return(uint64(2), nil)

		f.fetcher.On("FetchTranscript", mock.Anything, job.TranscriptURL).Return(raw, nil).Once()
		f.userRepo.On("GetUsersByUIDs", mock.Anything, mock.Anything).
			Return([]*models.User{{UID: "user-1", Name: "Alice"}}, nil).Once()
		f.agentRepo.On("GetAgentsByUIDs", mock.Anything, mock.Anything).
			Return([]*models.Agent{{UID: "agent-1", Name: "Scribe"}}, nil).Once()
		f.llm.On("Complete", mock.Anything, summarySystemPrompt, mock.MatchedBy(func(turns []domain.ChatTurn) bool {
			return len(turns) == 1 && turns[0].Role == domain.ChatRoleUser
		})).Return("## Overview\nAlice and Scribe talked.", nil).Once()

		// CompleteWithSummary transition.
		meeting := upcomingMeeting()
		meeting.Status = models.MeetingStatusProcessing
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(5), nil).Once()
		f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Status == models.MeetingStatusCompleted && m.Summary != ""
		}), uint64(5)).Return(nil).Once()
		f.lifecycle.statusSender.On("SendMeetingStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

		err := f.pipeline.Run(ctx, job)
		require.NoError(t, err)

		f.fetcher.AssertExpectations(t)
		f.llm.AssertExpectations(t)
		f.meetingRepo.AssertExpectations(t)
	})

	t.Run("resumed run reuses cached step outputs", func(t *testing.T) {
		f := setupPipeline()
		job := transcriptJob()

		// A prior run completed everything up to and including summarize,
		// then crashed before persisting.
		state := &models.PipelineState{
			JobID:         job.JobID,
			MeetingUID:    job.MeetingUID,
			TranscriptURL: job.TranscriptURL,
			Attempts:      1,
		}
		mustCache := func(step string, v any) {
			encoded, err := json.Marshal(v)
			require.NoError(t, err)
			state.SetStepOutput(step, encoded)
		}
		mustCache(stepFetch, []byte("{}"))
		mustCache(stepParse, []models.TranscriptItem{{SpeakerID: "user-1", Text: "hello"}})
		mustCache(stepSpeakers, map[string]string{"user-1": "Alice"})
		mustCache(stepFormat, "[#1] Alice: hello\n")
		mustCache(stepSummarize, "## Overview\ncached summary")

		f.pipelineRepo.On("GetPipelineStateWithRevision", mock.Anything, "meeting-1").
			Return(state, uint64(6), nil).Once()
		f.pipelineRepo.On("UpdatePipelineState", mock.Anything, mock.Anything, mock.Anything).
			Return(uint64(7), nil)

		meeting := upcomingMeeting()
		meeting.Status = models.MeetingStatusProcessing
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(5), nil).Once()
		f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Summary == "## Overview\ncached summary"
		}), uint64(5)).Return(nil).Once()
		f.lifecycle.statusSender.On("SendMeetingStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

		err := f.pipeline.Run(ctx, job)
		require.NoError(t, err)

		// The expensive steps were never repeated.
		f.fetcher.AssertNotCalled(t, "FetchTranscript", mock.Anything, mock.Anything)
		f.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replayed job after completion is an idempotent success", func(t *testing.T) {
		f := setupPipeline()
		job := transcriptJob()

		state := &models.PipelineState{
			JobID:         job.JobID,
			MeetingUID:    job.MeetingUID,
			TranscriptURL: job.TranscriptURL,
			Attempts:      1,
		}
		for step, v := range map[string]any{
			stepFetch:     []byte("{}"),
			stepParse:     []models.TranscriptItem{},
			stepSpeakers:  map[string]string{},
			stepFormat:    "",
			stepSummarize: "",
		} {
			encoded, err := json.Marshal(v)
			require.NoError(t, err)
			state.SetStepOutput(step, encoded)
		}

		f.pipelineRepo.On("GetPipelineStateWithRevision", mock.Anything, "meeting-1").
			Return(state, uint64(6), nil).Once()
		f.pipelineRepo.On("UpdatePipelineState", mock.Anything, mock.Anything, mock.Anything).
			Return(uint64(7), nil)

		// The meeting already completed; the persist guard fires.
		meeting := upcomingMeeting()
		meeting.Status = models.MeetingStatusCompleted
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(9), nil).Once()

		err := f.pipeline.Run(ctx, job)
		assert.NoError(t, err)
	})

	t.Run("malformed transcript fails the run", func(t *testing.T) {
		f := setupPipeline()
		job := transcriptJob()

		state := &models.PipelineState{
			JobID:         job.JobID,
			MeetingUID:    job.MeetingUID,
			TranscriptURL: job.TranscriptURL,
		}

		f.pipelineRepo.On("GetPipelineStateWithRevision", mock.Anything, "meeting-1").
			Return(state, uint64(1), nil).Once()
		f.pipelineRepo.On("UpdatePipelineState", mock.Anything, mock.Anything, mock.Anything).
			Return(uint64(2), nil)
		f.fetcher.On("FetchTranscript", mock.Anything, job.TranscriptURL).
			Return([]byte("not jsonl"), nil).Once()

		err := f.pipeline.Run(ctx, job)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		f.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty transcript skips the model", func(t *testing.T) {
		f := setupPipeline()
		job := transcriptJob()

		state := &models.PipelineState{
			JobID:         job.JobID,
			MeetingUID:    job.MeetingUID,
			TranscriptURL: job.TranscriptURL,
		}

		f.pipelineRepo.On("GetPipelineStateWithRevision", mock.Anything, "meeting-1").
			Return(state, uint64(1), nil).Once()
		f.pipelineRepo.On("UpdatePipelineState", mock.Anything, mock.Anything, mock.Anything).
			Return(uint64(2), nil)
		f.fetcher.On("FetchTranscript", mock.Anything, job.TranscriptURL).
			Return([]byte("\n"), nil).Once()

		meeting := upcomingMeeting()
		meeting.Status = models.MeetingStatusProcessing
		f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").
			Return(meeting, uint64(3), nil).Once()
		f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Status == models.MeetingStatusCompleted && m.Summary == ""
		}), uint64(3)).Return(nil).Once()
		f.lifecycle.statusSender.On("SendMeetingStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

		err := f.pipeline.Run(ctx, job)
		require.NoError(t, err)
		f.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})
}
