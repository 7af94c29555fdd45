// Package service wires the pure pipeline to its collaborators: the
// repository it loads snapshots from, the report cache, the journal and
// the event publisher
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/trogers1052/fox-valley-engine/internal/brief"
	"github.com/trogers1052/fox-valley-engine/internal/cache"
	"github.com/trogers1052/fox-valley-engine/internal/journal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
	"github.com/trogers1052/fox-valley-engine/internal/pipeline"
	"github.com/trogers1052/fox-valley-engine/internal/tables"
)

// ErrNoSnapshots is returned when no screen snapshot has been stored yet
var ErrNoSnapshots = errors.New("no screen snapshots stored")

// Repository is the persistence the service reads and records through
type Repository interface {
	ReplaceAllPositions(positions []models.Position) error
	GetAllPositions() ([]models.Position, error)
	SaveScreenSnapshot(group models.ScreenGroup, date time.Time, entries []models.ScreenEntry) error
	GetScreenSnapshots(date time.Time) (map[models.ScreenGroup][]models.ScreenEntry, error)
	GetSnapshotDates(limit int) ([]time.Time, error)
	AppendJournalEntries(entries []models.JournalEntry) error
	GetJournalEntries(limit int) ([]models.JournalEntry, error)
	GetJournalEntriesByAction(action string) ([]models.JournalEntry, error)
	SaveBrief(b *models.Brief, markdown string) error
	GetLatestBrief() (*models.BriefRecord, error)
	UpsertROIPoint(p models.ROIPoint) error
	GetROIHistory() ([]models.ROIPoint, error)
}

// Cache stores computed reports
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context) error
}

// Publisher announces recorded briefs and rank changes
type Publisher interface {
	PublishBrief(ctx context.Context, b *models.Brief) error
	PublishDeltas(ctx context.Context, deltas []models.DeltaRecord) error
}

// Option configures a Service
type Option func(*Service)

// WithCache enables the report cache
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher enables event publishing on recorded runs
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithJournalCSV mirrors recorded journal entries to a CSV file
func WithJournalCSV(path string) Option {
	return func(s *Service) { s.journalCSV = path }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service produces tactical reports from stored snapshots
type Service struct {
	repo       Repository
	engine     *pipeline.Engine
	cache      Cache
	publisher  Publisher
	journalCSV string
	now        func() time.Time
	log        zerolog.Logger
}

// New creates a Service
func New(repo Repository, engine *pipeline.Engine, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		engine: engine,
		now:    time.Now,
		log:    log.With().Str("component", "service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Facts loads the stored positions, the latest screen snapshot and the one
// before it
func (s *Service) Facts() (pipeline.Facts, error) {
	facts := pipeline.Facts{}

	dates, err := s.repo.GetSnapshotDates(2)
	if err != nil {
		return facts, fmt.Errorf("failed to load snapshot dates: %w", err)
	}
	if len(dates) == 0 {
		return facts, ErrNoSnapshots
	}

	latest := dates[0]
	facts.SnapshotDate = &latest
	facts.Screens, err = s.repo.GetScreenSnapshots(latest)
	if err != nil {
		return facts, fmt.Errorf("failed to load screens for %s: %w", latest.Format("2006-01-02"), err)
	}
	if len(dates) > 1 {
		facts.PreviousScreens, err = s.repo.GetScreenSnapshots(dates[1])
		if err != nil {
			return facts, fmt.Errorf("failed to load screens for %s: %w", dates[1].Format("2006-01-02"), err)
		}
	}

	facts.Positions, err = s.repo.GetAllPositions()
	if err != nil {
		return facts, fmt.Errorf("failed to load positions: %w", err)
	}
	return facts, nil
}

// Report evaluates the stored snapshots, serving from the cache when the
// inputs are unchanged
func (s *Service) Report(ctx context.Context) (*pipeline.Result, error) {
	facts, err := s.Facts()
	if err != nil {
		return nil, err
	}

	key, err := cache.Fingerprint(facts, s.engine.Rules())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached pipeline.Result
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Msg("Report cache read failed")
		} else if found {
			s.log.Debug().Str("key", key).Msg("Report served from cache")
			return &cached, nil
		}
	}

	res := s.engine.Evaluate(facts)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res); err != nil {
			s.log.Warn().Err(err).Msg("Report cache write failed")
		}
	}
	return res, nil
}

// Generate builds the current report. When record is set it appends the
// journal, stores the brief and ROI point and publishes the brief and rank
// changes
func (s *Service) Generate(ctx context.Context, record bool) (*pipeline.Result, error) {
	res, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	if !record {
		return res, nil
	}

	at := s.now().UTC()

	entries := journal.FromDecisions(res.Decisions, at)
	entries = append(entries, journal.FromDeltas(res.Deltas, at)...)
	if len(res.FullExits) > 0 {
		logged, err := s.repo.GetJournalEntriesByAction(models.JournalExitFull)
		if err != nil {
			return nil, fmt.Errorf("failed to load logged exits: %w", err)
		}
		entries = append(entries, journal.FullExits(res.FullExits, logged, at)...)
	}
	if err := s.appendJournal(entries); err != nil {
		return nil, err
	}

	res.Brief.CreatedAt = at
	md := brief.Markdown(res.Brief, res.Decisions)
	if err := s.repo.SaveBrief(res.Brief, md); err != nil {
		return nil, fmt.Errorf("failed to save brief: %w", err)
	}

	day := at
	if res.SnapshotDate != nil {
		day = *res.SnapshotDate
	}
	point := journal.NewROIPoint(day, res.TotalValue, res.CashValue, res.AverageGainPct)
	if err := s.repo.UpsertROIPoint(point); err != nil {
		return nil, fmt.Errorf("failed to save roi point: %w", err)
	}

	s.log.Info().
		Str("label", res.Label).
		Str("brief_id", res.Brief.ID).
		Int("journal_entries", len(entries)).
		Msg("Recorded tactical brief")

	s.publish(ctx, res)
	return res, nil
}

func (s *Service) publish(ctx context.Context, res *pipeline.Result) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBrief(ctx, res.Brief); err != nil {
		s.log.Error().Err(err).Str("label", res.Label).Msg("Failed to publish brief")
	}
	if err := s.publisher.PublishDeltas(ctx, res.Changes()); err != nil {
		s.log.Error().Err(err).Str("label", res.Label).Msg("Failed to publish rank deltas")
	}
}

func (s *Service) appendJournal(entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.repo.AppendJournalEntries(entries); err != nil {
		return fmt.Errorf("failed to append journal: %w", err)
	}
	if s.journalCSV != "" {
		if err := journal.AppendFile(s.journalCSV, entries); err != nil {
			s.log.Warn().Err(err).Str("path", s.journalCSV).Msg("Failed to mirror journal to CSV")
		}
	}
	return nil
}

// ImportPortfolio replaces the stored positions with a broker CSV export
func (s *Service) ImportPortfolio(ctx context.Context, name string, r io.Reader) (*normalize.PositionResult, error) {
	table, err := tables.ReadCSV(name, r)
	if err != nil {
		return nil, err
	}
	res, err := normalize.NormalizePositions(table, normalize.PositionColumns)
	if err != nil {
		return res, err
	}
	if err := s.repo.ReplaceAllPositions(res.Positions); err != nil {
		return res, fmt.Errorf("failed to store positions: %w", err)
	}

	s.log.Info().Str("table", name).Int("positions", len(res.Positions)).
		Int("diagnostics", len(res.Diagnostics)).Msg("Imported portfolio")
	s.invalidate(ctx)
	return res, nil
}

// ImportScreen replaces the stored snapshot of one screen group and date
// with a screen CSV export
func (s *Service) ImportScreen(ctx context.Context, group models.ScreenGroup, date time.Time, name string, r io.Reader) (*normalize.ScreenResult, error) {
	table, err := tables.ReadCSV(name, r)
	if err != nil {
		return nil, err
	}
	res, err := normalize.NormalizeScreen(table, group, date, normalize.ScreenColumns)
	if err != nil {
		return res, err
	}
	if err := s.repo.SaveScreenSnapshot(group, date, res.Entries); err != nil {
		return res, fmt.Errorf("failed to store screen snapshot: %w", err)
	}

	s.log.Info().Str("table", name).Str("group", string(group)).
		Str("date", date.Format("2006-01-02")).Int("entries", len(res.Entries)).
		Msg("Imported screen snapshot")
	s.invalidate(ctx)
	return res, nil
}

// CaptureOrders records the valid legs of a manual order ticket. Orders
// are journaled, never executed
func (s *Service) CaptureOrders(ctx context.Context, in journal.OrderInput) ([]models.Order, error) {
	orders := journal.CaptureOrders(nil, in, s.now().UTC())
	if err := s.appendJournal(journal.FromOrders(orders)); err != nil {
		return nil, err
	}
	return orders, nil
}

// Journal returns the most recent journal entries
func (s *Service) Journal(limit int) ([]models.JournalEntry, error) {
	return s.repo.GetJournalEntries(limit)
}

// LatestBrief returns the most recently recorded brief
func (s *Service) LatestBrief() (*models.BriefRecord, error) {
	return s.repo.GetLatestBrief()
}

// ROIHistory returns the stored ROI history
func (s *Service) ROIHistory() ([]models.ROIPoint, error) {
	return s.repo.GetROIHistory()
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate report cache")
	}
}
