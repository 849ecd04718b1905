package ai

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/transcript"
)

// TranscriptSource fetches video transcripts.
type TranscriptSource interface {
	Fetch(ctx context.Context, rawURL string) (*transcript.Transcript, error)
}

// VideoSummaryInput names a video to summarize.
type VideoSummaryInput struct {
	URL   string       `json:"url"`
	Style SummaryStyle `json:"style,omitempty"`
}

// VideoSummaryOutput is a summary of a video's transcript.
type VideoSummaryOutput struct {
	VideoID         string   `json:"videoId"`
	Language        string   `json:"language"`
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"keyPoints"`
	TranscriptChars int      `json:"transcriptChars"`
	Truncated       bool     `json:"truncated"`
}

// Service runs the FlowFocus flows.
type Service struct {
	gen         Generator
	transcripts TranscriptSource
	now         func() time.Time
	logger      *log.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces time.Now for plan start dates.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service. A nil generator makes every flow report that
// AI is not configured; a nil transcript source disables video summaries.
func NewService(gen Generator, transcripts TranscriptSource, logger *log.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		gen:         gen,
		transcripts: transcripts,
		now:         time.Now,
		logger:      logging.With(logger, "ai"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

func (s *Service) generator() (Generator, error) {
	if s.gen == nil {
		return nil, errors.NewInvalidRequest("AI generation is not configured: set " + config.EnvAPIKey)
	}
	return s.gen, nil
}

// GenerateStudyPlan drafts a plan. The start date defaults to today.
func (s *Service) GenerateStudyPlan(ctx context.Context, in entity.StudyPlanInput) (*StudyPlanOutput, error) {
	gen, err := s.generator()
	if err != nil {
		return nil, err
	}
	if in.StartDate == "" {
		in.StartDate = entity.Day(s.now())
	}
	out, err := studyPlanFlow.Run(ctx, gen, in)
	if err != nil {
		s.logger.Warn("study plan flow failed", "subject", in.Subject, "err", err)
		return nil, err
	}
	return &out, nil
}

// Summarize condenses text.
func (s *Service) Summarize(ctx context.Context, in SummaryInput) (*SummaryOutput, error) {
	gen, err := s.generator()
	if err != nil {
		return nil, err
	}
	out, err := summaryFlow.Run(ctx, gen, in)
	if err != nil {
		s.logger.Warn("summary flow failed", "err", err)
		return nil, err
	}
	return &out, nil
}

// GenerateFlashcards writes cards from text or a topic. Count defaults to 10.
func (s *Service) GenerateFlashcards(ctx context.Context, in FlashcardInput) (*FlashcardOutput, error) {
	gen, err := s.generator()
	if err != nil {
		return nil, err
	}
	if in.Count == 0 {
		in.Count = DefaultFlashcardCount
	}
	out, err := flashcardFlow.Run(ctx, gen, in)
	if err != nil {
		s.logger.Warn("flashcard flow failed", "topic", in.Topic, "err", err)
		return nil, err
	}
	return &out, nil
}

// SummarizeVideo fetches a video's transcript and summarizes it. Transcripts
// longer than MaxSourceChars are cut to fit.
func (s *Service) SummarizeVideo(ctx context.Context, in VideoSummaryInput) (*VideoSummaryOutput, error) {
	gen, err := s.generator()
	if err != nil {
		return nil, err
	}
	if s.transcripts == nil {
		return nil, errors.NewInvalidRequest("video transcripts are not configured")
	}
	tr, err := s.transcripts.Fetch(ctx, in.URL)
	if err != nil {
		return nil, err
	}

	text := tr.Text
	truncated := false
	if len(text) > MaxSourceChars {
		text = truncateUTF8(text, MaxSourceChars)
		truncated = true
	}
	sum, err := summaryFlow.Run(ctx, gen, SummaryInput{Text: text, Style: in.Style})
	if err != nil {
		s.logger.Warn("video summary failed", "video", tr.VideoID, "err", err)
		return nil, err
	}
	return &VideoSummaryOutput{
		VideoID:         tr.VideoID,
		Language:        tr.Language,
		Summary:         sum.Summary,
		KeyPoints:       sum.KeyPoints,
		TranscriptChars: len(tr.Text),
		Truncated:       truncated,
	}, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
