package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fishpulse/internal/config"
	"fishpulse/internal/dataprocessing"
	apierrors "fishpulse/internal/errors"
	"fishpulse/internal/exporter"
	"fishpulse/internal/infrastructure"
	"fishpulse/pkg/contracts/domain"
)

// DatasetServiceConfig bounds sessions and their datasets
type DatasetServiceConfig struct {
	MaxUploadBytes int64
	CacheEntries   int
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	MaxSessions    int
	TopSpecies     int
}

// DatasetConfigFrom maps the ingest section of the application config
func DatasetConfigFrom(cfg config.IngestConfig) DatasetServiceConfig {
	return DatasetServiceConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		CacheEntries:   cfg.CacheEntries,
		SessionTTL:     cfg.SessionTTL,
		SweepInterval:  cfg.SweepInterval,
		MaxSessions:    cfg.MaxSessions,
		TopSpecies:     config.DefaultTopSpecies,
	}
}

// session owns one uploaded dataset and the cache that produced it
type session struct {
	id        string
	createdAt time.Time
	lastSeen  atomic.Int64 // unix nanos

	mu      sync.RWMutex
	dataset *dataprocessing.Dataset
	cache   *dataprocessing.NormalizeCache
}

func (s *session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *session) current() *dataprocessing.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// DatasetService holds per-session datasets and answers aggregate queries
// against them. Datasets are immutable once stored, so reads share them
// without copying; every query recomputes from a filtered view.
type DatasetService struct {
	cfg        DatasetServiceConfig
	normalizer *dataprocessing.Normalizer
	summarizer *dataprocessing.Summarizer
	exporter   *exporter.Exporter
	tracer     *datasetTracer
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDatasetService creates a dataset service. metrics may be nil.
func NewDatasetService(cfg DatasetServiceConfig, exp *exporter.Exporter, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = config.DefaultSessionTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = config.DefaultSweepInterval
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if exp == nil {
		exp = exporter.NewExporter(logger, exporter.WriteOptions{BOMPrefix: true})
	}

	logger.Info("DatasetService initialized",
		slog.Duration("session_ttl", cfg.SessionTTL),
		slog.Int("max_sessions", cfg.MaxSessions),
		slog.Int("cache_entries", cfg.CacheEntries),
		slog.Int64("max_upload_bytes", cfg.MaxUploadBytes))

	return &DatasetService{
		cfg:        cfg,
		normalizer: dataprocessing.NewNormalizer(logger),
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{TopSpecies: cfg.TopSpecies}),
		exporter:   exp,
		tracer:     newDatasetTracer(metrics),
		logger:     logger.With(slog.String("component", "dataset_service")),
		now:        time.Now,
		sessions:   make(map[string]*session),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the idle session sweeper. It returns immediately; the
// sweeper exits when ctx is done or Stop is called.
func (s *DatasetService) Start(ctx context.Context) {
	go s.sweepLoop(ctx)
}

// Stop signals the sweeper to exit; wait on Done to observe it. Safe to
// call more than once, and before Start.
func (s *DatasetService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Done is closed once the sweeper has exited
func (s *DatasetService) Done() <-chan struct{} {
	return s.done
}

func (s *DatasetService) sweepLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepExpired(ctx)
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

// SweepExpired closes every session idle for longer than the TTL and
// returns how many were closed.
func (s *DatasetService) SweepExpired(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.SessionTTL).UnixNano()

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.lastSeen.Load() < cutoff {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		s.tracer.sessionsClosed(ctx, len(expired), true)
		s.logger.InfoContext(ctx, "idle sessions expired",
			slog.Int("count", len(expired)),
			slog.Duration("ttl", s.cfg.SessionTTL))
	}
	return len(expired)
}

// CreateSession opens an empty session and returns its id
func (s *DatasetService) CreateSession(ctx context.Context) (string, error) {
	now := s.now()
	sess := &session{
		id:        uuid.New().String(),
		createdAt: now,
		cache:     dataprocessing.NewNormalizeCache(s.normalizer, s.cfg.CacheEntries),
	}
	sess.touch(now)

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return "", apierrors.NewCapacityError("session limit reached").
			WithCode(apierrors.CodeSessionLimit).
			WithContext("max_sessions", s.cfg.MaxSessions)
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.tracer.sessionOpened(ctx)
	s.logger.InfoContext(ctx, "session created", slog.String("session_id", sess.id))

	return sess.id, nil
}

// CloseSession discards a session together with its dataset and cache
func (s *DatasetService) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return apierrors.SessionNotFound(id)
	}

	s.tracer.sessionsClosed(ctx, 1, false)
	s.logger.InfoContext(ctx, "session closed", slog.String("session_id", id))
	return nil
}

// SessionCount returns the number of open sessions
func (s *DatasetService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *DatasetService) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, apierrors.SessionNotFound(id)
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *DatasetService) loaded(id string) (*dataprocessing.Dataset, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	ds := sess.current()
	if ds == nil {
		return nil, apierrors.DatasetNotLoaded(id)
	}
	return ds, nil
}

// Upload ingests raw as the session's dataset, replacing any previous one.
// Content identical to the current dataset is served from the session cache;
// different content invalidates the cache first. A rejected upload leaves the
// session without a dataset.
func (s *DatasetService) Upload(ctx context.Context, id, name string, raw []byte) (*dataprocessing.Dataset, bool, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, false, err
	}

	ctx = infrastructure.WithSessionID(ctx, id)
	ctx, span := s.tracer.traceUpload(ctx, id, name, len(raw))
	defer span.End()

	if int64(len(raw)) > s.cfg.MaxUploadBytes {
		err := apierrors.NewPayloadTooLargeError(s.cfg.MaxUploadBytes, nil)
		s.tracer.recordUploadError(ctx, err)
		return nil, false, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	hash := dataprocessing.ContentHash(raw)
	if sess.dataset != nil && sess.dataset.Info.ContentHash != hash {
		sess.cache.Invalidate()
	}

	start := s.now()
	ds, hit, err := sess.cache.GetOrNormalize(ctx, name, raw)
	if err != nil {
		sess.dataset = nil
		s.tracer.recordUploadError(ctx, err)
		infrastructure.LoggerWithContext(ctx).WarnContext(ctx, "upload rejected",
			slog.String("source", name),
			slog.String("error", err.Error()))
		return nil, false, err
	}
	sess.dataset = ds

	s.tracer.recordUploadCompletion(ctx, span, ds, hit, s.now().Sub(start))
	infrastructure.LoggerWithContext(ctx).InfoContext(ctx, "upload accepted",
		slog.String("source", name),
		slog.Int("records", ds.Info.RecordCount),
		slog.Bool("cache_hit", hit))

	return ds, hit, nil
}

// Dataset returns the ingestion metadata of the session's dataset
func (s *DatasetService) Dataset(ctx context.Context, id string) (domain.DatasetInfo, error) {
	ds, err := s.loaded(id)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info, nil
}

// CacheStats reports the session's normalization cache usage
func (s *DatasetService) CacheStats(ctx context.Context, id string) (dataprocessing.CacheStats, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return dataprocessing.CacheStats{}, err
	}
	return sess.cache.Stats(), nil
}

// selection returns the filtered records of a session's dataset
func (s *DatasetService) selection(id string, filter domain.ProductionFilter) ([]domain.ProductionRecord, error) {
	ds, err := s.loaded(id)
	if err != nil {
		return nil, err
	}
	return ds.Select(filter), nil
}

// Records returns the filtered records in dataset order
func (s *DatasetService) Records(ctx context.Context, id string, filter domain.ProductionFilter) ([]domain.ProductionRecord, error) {
	return s.selection(id, filter)
}

// Facets lists the filter options of the whole dataset
func (s *DatasetService) Facets(ctx context.Context, id string) (domain.Facets, error) {
	ds, err := s.loaded(id)
	if err != nil {
		return domain.Facets{}, err
	}
	return dataprocessing.BuildFacets(ds.Records()), nil
}

// KPIs summarizes the filtered records
func (s *DatasetService) KPIs(ctx context.Context, id string, filter domain.ProductionFilter) (domain.KPISummary, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return domain.KPISummary{}, err
	}
	return dataprocessing.Summarize(records), nil
}

// Trend returns the monthly trend of the filtered records
func (s *DatasetService) Trend(ctx context.Context, id string, filter domain.ProductionFilter) ([]domain.TrendPoint, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return nil, err
	}
	return dataprocessing.MonthlyTrend(records), nil
}

// TopSpecies ranks species of the filtered records
func (s *DatasetService) TopSpecies(ctx context.Context, id string, filter domain.ProductionFilter, n int) ([]domain.SpeciesVolume, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return nil, err
	}
	return dataprocessing.TopSpecies(records, n), nil
}

// Yearly returns yearly totals of the filtered records
func (s *DatasetService) Yearly(ctx context.Context, id string, filter domain.ProductionFilter) ([]domain.YearVolume, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return nil, err
	}
	return dataprocessing.YearlyTotals(records), nil
}

// Pivot returns the month x year pivot of the filtered records
func (s *DatasetService) Pivot(ctx context.Context, id string, filter domain.ProductionFilter) (domain.PivotTable, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return domain.PivotTable{}, err
	}
	return dataprocessing.MonthYearPivot(records), nil
}

// Report computes every aggregate of the filtered records at once
func (s *DatasetService) Report(ctx context.Context, id string, filter domain.ProductionFilter) (dataprocessing.Report, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return dataprocessing.Report{}, err
	}
	return s.summarizer.Generate(ctx, records), nil
}

// Export writes the filtered records to w in format
func (s *DatasetService) Export(ctx context.Context, id string, filter domain.ProductionFilter, format exporter.Format, w io.Writer) (int, error) {
	records, err := s.selection(id, filter)
	if err != nil {
		return 0, err
	}
	return s.exporter.Export(infrastructure.WithSessionID(ctx, id), w, format, records)
}
