package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"flux/internal/cache"
	"flux/internal/core"
	"flux/internal/records"
)

// State of a user's dashboard pipeline.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Snapshot is the outcome of one refresh: the active filter's records and
// metrics plus the weekly budget status. A failed fetch leaves both record
// sets empty and sets State to StateFailed with Err.
type Snapshot struct {
	Filter      core.Filter
	Range       core.DateRange
	State       State
	Err         error
	Expenses    []core.Expense
	Metrics     core.Metrics
	WeeklyRange core.DateRange
	WeeklyTotal core.Money
	Budget      core.BudgetStatus
	Token       uint64
	FetchedAt   time.Time
	// Superseded is set when a newer refresh for the same user was issued
	// before this one completed; such snapshots are never committed.
	Superseded bool
}

// TrackerConfig carries the injected settings of the pipeline.
type TrackerConfig struct {
	WeeklyLimit  core.Money
	Location     *time.Location
	FetchTimeout time.Duration
	CacheSize    int
	CacheTTL     time.Duration
	// SessionIdle is how long an owner's filter and last snapshot are kept
	// without activity before CleanExpired drops them.
	SessionIdle time.Duration
	Now         func() time.Time
}

type session struct {
	filter   core.Filter
	latest   uint64
	gen      uint64
	inflight int
	lastSeen time.Time
	snap     Snapshot
}

// Tracker runs the fetch pipeline for every user. Fetched record lists are
// cached per (owner, mode, range); a mutation invalidates the owner's entries.
type Tracker struct {
	finder records.Finder
	cfg    TrackerConfig
	cache  *cache.LRUCache[[]core.Expense]
	group  singleflight.Group
	seq    atomic.Uint64
	gens   atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*session
}

func NewTracker(finder records.Finder, cfg TrackerConfig) *Tracker {
	if cfg.WeeklyLimit == 0 {
		cfg.WeeklyLimit = core.DefaultWeeklyLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 7 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 200
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tracker{
		finder:   finder,
		cfg:      cfg,
		cache:    cache.NewLRUCache[[]core.Expense](cfg.CacheSize, cfg.CacheTTL),
		sessions: make(map[string]*session),
	}
}

// Cache exposes the record cache so it can be registered for cleanup.
func (t *Tracker) Cache() *cache.LRUCache[[]core.Expense] { return t.cache }

// WeeklyLimit is the configured budget threshold.
func (t *Tracker) WeeklyLimit() core.Money { return t.cfg.WeeklyLimit }

// Now returns the current time in the configured location.
func (t *Tracker) Now() time.Time { return t.cfg.Now().In(t.cfg.Location) }

// Today is the current calendar date in the configured location.
func (t *Tracker) Today() core.Date { return core.DateOf(t.Now()) }

// session must be called with t.mu held. Generations come from a
// tracker-wide counter so a recreated session never reuses one.
func (t *Tracker) session(owner string) *session {
	s, ok := t.sessions[owner]
	if !ok {
		s = &session{
			filter: core.Filter{Mode: core.FilterWeekly},
			gen:    t.gens.Add(1),
			snap:   Snapshot{State: StateIdle, Filter: core.Filter{Mode: core.FilterWeekly}},
		}
		t.sessions[owner] = s
	}
	s.lastSeen = t.cfg.Now()
	return s
}

// CleanExpired drops sessions idle for longer than SessionIdle. Sessions with
// a refresh in flight are kept. It implements cache.Cleaner.
func (t *Tracker) CleanExpired() int {
	cutoff := t.cfg.Now().Add(-t.cfg.SessionIdle)
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for owner, s := range t.sessions {
		if s.inflight == 0 && s.lastSeen.Before(cutoff) {
			delete(t.sessions, owner)
			n++
		}
	}
	return n
}

// Sessions reports how many owners currently hold tracker state.
func (t *Tracker) Sessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// SetFilter changes the owner's active filter and refreshes.
func (t *Tracker) SetFilter(ctx context.Context, owner string, f core.Filter) Snapshot {
	t.mu.Lock()
	t.session(owner).filter = f
	t.mu.Unlock()
	return t.Refresh(ctx, owner)
}

// Filter returns the owner's active filter.
func (t *Tracker) Filter(owner string) core.Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session(owner).filter
}

// Current returns the last committed snapshot.
func (t *Tracker) Current(owner string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session(owner).snap
}

// Invalidate drops every cached list of owner. In-flight fetches that started
// before the call will not repopulate the cache.
func (t *Tracker) Invalidate(owner string) {
	t.mu.Lock()
	t.session(owner).gen = t.gens.Add(1)
	n := t.cache.DeletePrefix(owner + "|")
	t.mu.Unlock()
	slog.Debug("Tracker cache invalidated", "user_id", owner, "entries", n)
}

// Refresh re-runs the pipeline for the owner's active filter: the active
// range and the current week are fetched concurrently, then aggregated and
// evaluated against the weekly limit.
func (t *Tracker) Refresh(ctx context.Context, owner string) Snapshot {
	token := t.seq.Add(1)

	t.mu.Lock()
	s := t.session(owner)
	s.latest = token
	s.inflight++
	filter := s.filter
	gen := s.gen
	s.snap.State = StateLoading
	t.mu.Unlock()

	now := t.Now()
	snap := Snapshot{
		Filter:      filter,
		Range:       filter.Resolve(now),
		WeeklyRange: core.WeeklyRange(now),
		Token:       token,
		FetchedAt:   now,
	}

	active, weekly, err := t.fetchBoth(ctx, owner, gen, filter.Mode, snap.Range, snap.WeeklyRange)
	if err != nil {
		slog.WarnContext(ctx, "Dashboard fetch failed",
			"user_id", owner,
			"filter", filter.Mode,
			"error", err)
		snap.State = StateFailed
		snap.Err = err
		active, weekly = []core.Expense{}, []core.Expense{}
	} else {
		snap.State = StateReady
	}

	snap.Expenses = active
	snap.Metrics = core.Aggregate(active, snap.Range)
	for _, e := range weekly {
		snap.WeeklyTotal += e.Amount
	}
	snap.Budget = core.EvaluateBudget(snap.WeeklyTotal, t.cfg.WeeklyLimit)

	t.mu.Lock()
	s.inflight--
	if s.latest == token {
		s.snap = snap
	} else {
		snap.Superseded = true
	}
	t.mu.Unlock()

	if snap.Superseded {
		slog.DebugContext(ctx, "Discarded stale dashboard result", "user_id", owner, "token", token)
	}
	return snap
}

func (t *Tracker) fetchBoth(ctx context.Context, owner string, gen uint64, mode core.FilterMode, active, weekly core.DateRange) ([]core.Expense, []core.Expense, error) {
	var activeRecs, weeklyRecs []core.Expense
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activeRecs, err = t.fetch(gctx, owner, gen, mode, active)
		return err
	})
	g.Go(func() error {
		var err error
		weeklyRecs, err = t.fetch(gctx, owner, gen, core.FilterWeekly, weekly)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return activeRecs, weeklyRecs, nil
}

func cacheKey(owner string, mode core.FilterMode, rng core.DateRange) string {
	return owner + "|" + string(mode) + "|" + rng.String()
}

// fetch returns the owner's records in rng. The returned slice may be shared
// with the cache and other callers and must not be modified.
func (t *Tracker) fetch(ctx context.Context, owner string, gen uint64, mode core.FilterMode, rng core.DateRange) ([]core.Expense, error) {
	key := cacheKey(owner, mode, rng)
	if recs, ok := t.cache.Get(key); ok {
		return recs, nil
	}

	v, err, _ := t.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.FetchTimeout)
		defer cancel()

		recs, err := t.finder.Find(fctx, owner, rng.FirstDate(), rng.LastDate())
		if err != nil {
			return nil, &core.StoreError{Op: "find", Err: err}
		}
		if recs == nil {
			recs = []core.Expense{}
		}

		t.mu.Lock()
		if t.session(owner).gen == gen {
			t.cache.Set(key, recs)
		}
		t.mu.Unlock()
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.Expense), nil
}
