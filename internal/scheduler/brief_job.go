package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/trogers1052/fox-valley-engine/internal/pipeline"
)

// Generator produces and records the tactical report
type Generator interface {
	Generate(ctx context.Context, record bool) (*pipeline.Result, error)
}

// BriefJob records the daily tactical brief
type BriefJob struct {
	generator Generator
	timeout   time.Duration
	log       zerolog.Logger
}

// NewBriefJob creates the daily brief job
func NewBriefJob(generator Generator, timeout time.Duration, log zerolog.Logger) *BriefJob {
	return &BriefJob{
		generator: generator,
		timeout:   timeout,
		log:       log.With().Str("job", "daily_brief").Logger(),
	}
}

// Name returns the job name
func (j *BriefJob) Name() string {
	return "daily_brief"
}

// Run generates and records one brief
func (j *BriefJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	res, err := j.generator.Generate(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to generate brief: %w", err)
	}

	for _, c := range res.Conditions {
		j.log.Warn().Str("kind", c.Kind).Str("table", c.Table).Msg(c.Message)
	}
	j.log.Info().
		Str("label", res.Label).
		Int("decisions", len(res.Decisions)).
		Int("changes", len(res.Changes())).
		Msg("Daily brief recorded")
	return nil
}
