package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/venue-matcher/internal/matcher"
	"github.com/rickgao/venue-matcher/internal/metrics"
	"github.com/rickgao/venue-matcher/internal/mode"
	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/store"
	"github.com/rickgao/venue-matcher/internal/stream"
	"github.com/rickgao/venue-matcher/internal/topics"
	"github.com/rickgao/venue-matcher/internal/universe"
)

// finishTimeout bounds the run record update issued after the caller's
// context may already be cancelled.
const finishTimeout = 5 * time.Second

// Run outcomes, used as metric labels.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAborted   = "aborted"
)

// Result summarises a finished run.
type Result struct {
	RunID   string
	Outcome string
	Code    string // Set for failed and aborted runs
	Reason  string // Set for completed runs
	Mode    mode.Mode
	Counts  Counts
	Err     error
}

// Service runs scans. It holds no per-run state and is safe for
// concurrent use.
type Service struct {
	kalshi        universe.TickerVenue
	polymarket    universe.EventVenue
	store         store.Store
	settings      Settings
	engine        *matcher.Engine
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	authenticated bool
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithAuthenticated records whether Kalshi requests are signed.
func WithAuthenticated(ok bool) Option {
	return func(s *Service) {
		s.authenticated = ok
	}
}

// NewService creates a scan service.
func NewService(kalshi universe.TickerVenue, polymarket universe.EventVenue, st store.Store, settings Settings, opts ...Option) *Service {
	s := &Service{
		kalshi:     kalshi,
		polymarket: polymarket,
		store:      st,
		settings:   settings,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.engine = matcher.New(settings.Matcher, s.logger.With("component", "matcher"))
	return s
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Run executes one scan and streams its events to em. It returns once the
// run record reached a terminal state.
func (s *Service) Run(ctx context.Context, req Request, em stream.Emitter) *Result {
	started := s.now()
	rc := newRunContext(s.newID(), em.RequestID(), req, started, s.authenticated)
	logger := s.logger.With("request_id", rc.RequestID, "run_id", rc.RunID)

	r := &run{
		svc:    s,
		rc:     rc,
		em:     em,
		logger: logger,
		kalshi: universe.NewFetcher(s.settings.Universe, s.kalshi, s.metrics, logger.With("venue", "kalshi")),
		events: universe.NewEventFetcher(s.settings.Universe, s.polymarket, s.metrics, logger.With("venue", "polymarket")),
	}

	s.metrics.RunStarted()
	res := r.execute(ctx)
	res.Mode = rc.Mode.Current()
	s.metrics.RunFinished(res.Outcome, string(res.Mode), s.now().Sub(started))

	logger.Info("scan finished",
		"outcome", res.Outcome,
		"code", res.Code,
		"reason", res.Reason,
		"mode", res.Mode,
		"candidates", res.Counts.Candidates,
		"added", res.Counts.Added,
		"duration", s.now().Sub(started),
	)
	return res
}

// emitError marks a transport failure. The caller is gone. Payload
// encoding errors are not emitErrors; they fail the run.
type emitError struct {
	err error
}

func (e *emitError) Error() string { return "emit: " + e.err.Error() }

func (e *emitError) Unwrap() error { return e.err }

type run struct {
	svc     *Service
	rc      *RunContext
	em      stream.Emitter
	logger  *slog.Logger
	kalshi  *universe.Fetcher
	events  *universe.EventFetcher
	created bool
	emitErr error
}

func (r *run) execute(ctx context.Context) (res *Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("scan panicked", "panic", p)
			res = r.fail(ctx, fmt.Errorf("panic: %v", p))
		}
	}()

	err := r.svc.store.CreateRun(ctx, &model.ScanRun{
		ID:        r.rc.RunID,
		Status:    model.RunRunning,
		StartedAt: r.rc.StartedAt,
	})
	if err != nil {
		if ctx.Err() != nil {
			return r.abort(ctx)
		}
		return r.fail(ctx, fmt.Errorf("create run: %w", err))
	}
	r.created = true

	err = r.scan(ctx)
	switch {
	case err == nil:
		return r.complete(ctx)
	case r.isAbort(ctx, err):
		return r.abort(ctx)
	default:
		return r.fail(ctx, err)
	}
}

func (r *run) isAbort(ctx context.Context, err error) bool {
	var ee *emitError
	return ctx.Err() != nil || errors.As(err, &ee)
}

func (r *run) scan(ctx context.Context) error {
	req := r.rc.Request
	r.logger.Info("scan started",
		"mode", req.Mode,
		"limit", req.Limit,
		"pm_limit", req.PMLimit,
		"mve_filter", req.MveFilter,
		"keywords", len(req.Keywords),
		"prefixes", len(req.Prefixes),
	)
	if err := r.progress("scan started"); err != nil {
		return err
	}

	var (
		baseline *universe.FlatState
		pm       *universe.EventResult
		err      error
	)

	if r.rc.Mode.Current() == mode.Auto {
		baseline, pm, err = r.resolveAuto(ctx)
		if err != nil {
			return err
		}
	}

	r.rc.Phase = PhaseUniverse
	if pm == nil {
		if err := r.progress("fetching polymarket universe"); err != nil {
			return err
		}
		if pm, err = r.fetchEvents(ctx); err != nil {
			return err
		}
	}

	pool, err := r.fetchKalshi(ctx, baseline)
	if err != nil {
		return err
	}
	r.svc.metrics.SetUniverseSize("kalshi", r.rc.KalshiPool)
	r.svc.metrics.SetUniverseSize("polymarket", r.rc.PolymarketPool)

	if err := r.debug("universe ready"); err != nil {
		return err
	}
	if len(pool) == 0 {
		r.logger.Warn("no kalshi markets available", "mode", r.rc.Mode.Current())
		return nil
	}

	return r.match(ctx, pm.Events, pool)
}

// resolveAuto fetches the baseline page and the Polymarket sample
// concurrently and settles the mode.
func (r *run) resolveAuto(ctx context.Context) (*universe.FlatState, *universe.EventResult, error) {
	rc := r.rc
	rc.Phase = PhaseBaseline
	if err := r.progress("fetching baseline"); err != nil {
		return nil, nil, err
	}

	var (
		baseline *universe.FlatState
		pm       *universe.EventResult
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if baseline, err = r.kalshi.Baseline(ctx, rc.Request.MveFilter); err != nil {
			return fmt.Errorf("fetch baseline: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pm, err = r.events.Fetch(ctx, r.svc.settings.Tags, r.svc.settings.TagLimit, rc.Request.PMLimit)
		if err != nil {
			return fmt.Errorf("fetch polymarket sample: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	r.recordEvents(pm)

	items := baseline.Pool.Items()
	dec := mode.Decide(mode.Inputs{
		Baseline:  items,
		Hints:     rc.Hints,
		Keywords:  rc.Request.Keywords,
		Prefixes:  rc.Request.Prefixes,
		MveFilter: rc.Request.MveFilter,
		Threshold: r.svc.settings.SportsThreshold,
	})
	rc.Decision = &dec
	rc.sampleTickers(items)
	if err := rc.Mode.Resolve(dec.Mode); err != nil {
		return nil, nil, fmt.Errorf("resolve mode: %w", err)
	}
	r.svc.metrics.ModeResolved(string(dec.Mode), rc.Mode.Switched())

	r.logger.Info("mode resolved",
		"mode", dec.Mode,
		"sports_fraction", dec.SportsFraction,
		"politics", dec.PoliticsMatch,
		"crypto", dec.CryptoMatch,
		"reason", dec.Reason,
	)

	step := "mode resolved: " + string(dec.Mode)
	if rc.Mode.Switched() {
		step = "auto-switched to " + string(dec.Mode) + ": " + dec.Reason
	}
	if err := r.progress(step); err != nil {
		return nil, nil, err
	}
	if err := r.debug("mode decision"); err != nil {
		return nil, nil, err
	}
	return baseline, pm, nil
}

func (r *run) fetchEvents(ctx context.Context) (*universe.EventResult, error) {
	pm, err := r.events.Fetch(ctx, r.svc.settings.Tags, r.svc.settings.TagLimit, r.rc.Request.PMLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch polymarket universe: %w", err)
	}
	r.recordEvents(pm)
	return pm, nil
}

func (r *run) recordEvents(pm *universe.EventResult) {
	rc := r.rc
	rc.PolymarketPool = len(pm.Events)
	rc.Tags = pm.Tags
	rc.Hints = topics.Extract(pm.Events)
	rc.sampleEvents(pm.Events)
	rc.addFailures(pm.Failures)
}

// fetchKalshi builds the Kalshi universe for the resolved mode. A scoped
// crawl that yields nothing falls back to flat pagination, and an empty
// live universe falls back to the cached pool.
func (r *run) fetchKalshi(ctx context.Context, baseline *universe.FlatState) ([]model.TickerInstrument, error) {
	rc := r.rc
	current := rc.Mode.Current()
	if current == mode.Auto {
		return nil, errors.New("mode unresolved")
	}
	if err := r.progress("fetching kalshi universe: " + string(current)); err != nil {
		return nil, err
	}

	var items []model.TickerInstrument

	if current.Scoped() {
		rc.Keywords = r.scopedKeywords()
		res, err := r.kalshi.Scoped(ctx, universe.ScopedOptions{
			Keywords:    rc.Keywords,
			Prefixes:    rc.Request.Prefixes,
			RequireHit:  current == mode.SearchKeywords,
			ResultLimit: rc.Request.Limit,
			MveFilter:   rc.Request.MveFilter,
		})
		if res != nil {
			rc.Categories = res.Categories
			rc.addFailures(res.Failures)
		}
		if err != nil {
			return nil, fmt.Errorf("scoped crawl: %w", err)
		}
		items = res.Pool.Items()
		if len(items) == 0 {
			r.logger.Warn("scoped crawl empty, falling back to flat pagination")
			if err := r.progress("scoped crawl empty, falling back to flat pagination"); err != nil {
				return nil, err
			}
		}
	}

	if len(items) == 0 {
		st, err := r.kalshi.Flat(ctx, baseline, rc.Request.MveFilter)
		if st != nil {
			rc.recordFlat(st)
		}
		if err != nil {
			return nil, fmt.Errorf("flat pagination: %w", err)
		}
		items = st.Pool.Items()
	}

	if len(items) == 0 {
		cached, err := r.cachedPool(ctx)
		if err != nil {
			return nil, err
		}
		items = cached
	}

	rc.KalshiPool = len(items)
	rc.sampleTickers(items)
	return items, nil
}

// scopedKeywords unions the caller's keywords into the mode's keyword set:
// the auto decision's keywords when there is one, the topic hints otherwise.
func (r *run) scopedKeywords() []string {
	base := r.rc.Hints
	if r.rc.Decision != nil && len(r.rc.Decision.Keywords) > 0 {
		base = r.rc.Decision.Keywords
	}
	return mode.MergeKeywords(base, r.rc.Request.Keywords)
}

func (r *run) cachedPool(ctx context.Context) ([]model.TickerInstrument, error) {
	cached, err := r.svc.store.ListCachedTickers(ctx, r.svc.settings.CachedTickerLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("cached tickers unavailable", "err", err)
		return nil, nil
	}
	pool := universe.FromCache(cached)
	if pool.Len() == 0 {
		return nil, nil
	}

	r.rc.Source = model.PoolDegraded
	r.logger.Warn("using degraded cached universe", "tickers", pool.Len(), "authenticated", r.rc.Authenticated)
	if err := r.progress("live kalshi universe empty, using cached pairs"); err != nil {
		return nil, err
	}
	return pool.Items(), nil
}

func (r *run) match(ctx context.Context, events []model.EventInstrument, pool []model.TickerInstrument) error {
	rc := r.rc
	rc.Phase = PhaseMatching
	if err := r.progress("matching"); err != nil {
		return err
	}

	stats, err := r.svc.engine.Run(ctx, events, pool, matcher.Options{
		Limit: rc.Request.Limit,
		Pool:  rc.Source,
		Every: r.svc.settings.ProgressEvery,
		Progress: func(scanned int) {
			rc.Counts.Scanned = scanned
			if r.emitErr == nil {
				r.emitErr = r.progress("matching")
			}
		},
	}, r.onMatch)

	rc.Match = stats
	rc.Counts.Scanned = stats.Scanned
	rc.Counts.Unmatched = stats.Skipped
	if err != nil {
		return err
	}
	if r.emitErr != nil {
		return r.emitErr
	}
	return r.debug("matching complete")
}

func (r *run) onMatch(ctx context.Context, m matcher.Match) error {
	if r.emitErr != nil {
		return r.emitErr
	}
	rc := r.rc
	rc.Counts.Candidates++
	r.svc.metrics.CandidateEmitted(string(m.Candidate.Confidence))

	persisted, err := r.persist(ctx, m)
	if err != nil {
		return err
	}

	alts := make([]alternative, len(m.Alternatives))
	for i, a := range m.Alternatives {
		alts[i] = alternative{
			KalshiTicker: a.Instrument.Ticker,
			Title:        a.Instrument.Title,
			Score:        a.Result.Value,
		}
	}

	return r.emit(stream.EventCandidate, candidatePayload{
		PolymarketID:   m.Event.ID,
		PolymarketSlug: m.Event.Slug,
		KalshiTicker:   m.Candidate.Ticker,
		TitleA:         m.Event.Title,
		TitleB:         m.Best.Instrument.Title,
		Score:          m.Candidate.Score,
		Reason:         m.Candidate.Reason,
		Confidence:     string(m.Candidate.Confidence),
		Alternatives:   alts,
		Persisted:      persisted,
	})
}

// persist stores high-confidence candidates. Only cancellation is
// returned as an error; store failures are counted.
func (r *run) persist(ctx context.Context, m matcher.Match) (string, error) {
	counts := &r.rc.Counts
	if m.Candidate.Confidence != model.ConfidenceHigh {
		counts.Skipped++
		return PersistSkipped, nil
	}

	outcome, err := r.savePair(ctx, m)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.logger.Error("persist pair failed",
			"polymarket_id", m.Event.ID,
			"kalshi_ticker", m.Candidate.Ticker,
			"err", err,
		)
		outcome = PersistError
	}

	switch outcome {
	case PersistAdded:
		counts.Added++
	case PersistExisting:
		counts.Existing++
	case PersistError:
		counts.Errors++
	}
	r.svc.metrics.PairPersisted(outcome)
	return outcome, nil
}

func (r *run) savePair(ctx context.Context, m matcher.Match) (string, error) {
	existing, err := r.svc.store.FindExistingPair(ctx, m.Event.ID, m.Candidate.Ticker)
	switch {
	case err == nil && existing != nil:
		return PersistExisting, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("find pair: %w", err)
	}

	err = r.svc.store.CreatePair(ctx, &model.MatchedPair{
		EventID:    m.Event.ID,
		Ticker:     m.Candidate.Ticker,
		TitleA:     m.Event.Title,
		TitleB:     m.Best.Instrument.Title,
		Status:     model.PairUnverified,
		Confidence: m.Candidate.Score,
	})
	switch {
	case err == nil:
		r.logger.Info("pair added",
			"polymarket_id", m.Event.ID,
			"kalshi_ticker", m.Candidate.Ticker,
			"score", m.Candidate.Score,
		)
		return PersistAdded, nil
	case errors.Is(err, store.ErrDuplicateKey):
		// Another run inserted it after the lookup.
		return PersistExisting, nil
	default:
		return "", fmt.Errorf("create pair: %w", err)
	}
}

func (r *run) complete(ctx context.Context) *Result {
	rc := r.rc
	rc.Phase = PhaseCompleted
	reason := rc.reason()

	r.finishRun(ctx, model.RunCompleted, "")

	err := r.emit(stream.EventComplete, completePayload{
		Counts:         rc.Counts,
		RunID:          rc.RunID,
		Reason:         reason,
		Mode:           rc.Mode.Current(),
		ModeSwitched:   rc.Mode.Switched(),
		Degraded:       rc.Source == model.PoolDegraded,
		KalshiPool:     rc.KalshiPool,
		PolymarketPool: rc.PolymarketPool,
		LimitHit:       rc.Match.LimitHit,
		DurationMS:     r.svc.now().Sub(rc.StartedAt).Milliseconds(),
	})
	if err != nil {
		r.logger.Warn("complete event not delivered", "err", err)
	}

	return &Result{
		RunID:   rc.RunID,
		Outcome: OutcomeCompleted,
		Reason:  reason,
		Counts:  rc.Counts,
	}
}

// fail reports a fatal error, terminates the stream, and waits out the
// grace delay so the final events can flush.
func (r *run) fail(ctx context.Context, cause error) *Result {
	rc := r.rc
	phase := rc.Phase
	rc.Phase = PhaseTerminated
	r.logger.Error("scan failed", "phase", phase, "err", cause)

	if err := r.emit(stream.EventError, errorPayload{
		Code:    CodeFatal,
		Message: cause.Error(),
		Context: rc.snapshot(r.svc.now()),
	}); err != nil {
		r.logger.Warn("error event not delivered", "err", err)
	}
	if err := r.emit(stream.EventTerminated, terminatedPayload{Code: CodeFatal, Phase: phase}); err != nil {
		r.logger.Warn("terminated event not delivered", "err", err)
	}

	r.finishRun(ctx, model.RunFailed, CodeFatal)
	r.grace(ctx)

	return &Result{
		RunID:   rc.RunID,
		Outcome: OutcomeFailed,
		Code:    CodeFatal,
		Counts:  rc.Counts,
		Err:     cause,
	}
}

// abort records a client disconnect. Nothing is emitted.
func (r *run) abort(ctx context.Context) *Result {
	rc := r.rc
	r.logger.Info("client disconnected", "phase", rc.Phase)
	rc.Phase = PhaseTerminated
	r.finishRun(ctx, model.RunFailed, CodeClientAbort)
	return &Result{
		RunID:   rc.RunID,
		Outcome: OutcomeAborted,
		Code:    CodeClientAbort,
		Counts:  rc.Counts,
	}
}

func (r *run) finishRun(ctx context.Context, status model.RunStatus, code string) {
	if !r.created {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	now := r.svc.now()
	processed := r.rc.Counts.Scanned
	patch := model.RunPatch{
		Status:         &status,
		CompletedAt:    &now,
		PairsProcessed: &processed,
	}
	if code != "" {
		patch.Error = &code
	}
	if err := r.svc.store.UpdateRun(ctx, r.rc.RunID, patch); err != nil {
		r.logger.Error("update run failed", "status", status, "err", err)
	}
}

func (r *run) grace(ctx context.Context) {
	d := r.svc.settings.GraceDelay
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (r *run) emit(name string, payload any) error {
	err := r.em.Emit(name, payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stream.ErrPayload):
		return fmt.Errorf("emit %s: %w", name, err)
	default:
		return &emitError{err: err}
	}
}

func (r *run) progress(step string) error {
	rc := r.rc
	return r.emit(stream.EventProgress, progressPayload{
		Phase:          rc.Phase,
		Step:           step,
		Mode:           rc.Mode.Current(),
		KalshiPool:     rc.KalshiPool,
		PolymarketPool: rc.PolymarketPool,
		Counts:         rc.Counts,
	})
}

func (r *run) debug(msg string) error {
	return r.emit(stream.EventDebugLog, debugPayload{
		Message:  msg,
		Snapshot: r.rc.snapshot(r.svc.now()),
	})
}
