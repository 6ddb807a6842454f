package inventory

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/packaging"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/sales"
)

type EventType string

const (
	EventProduced    EventType = "produced"
	EventSold        EventType = "sold"
	EventRejected    EventType = "rejected"
	EventSaleDeleted EventType = "sale_deleted"
	EventCatalog     EventType = "catalog"
	EventRestored    EventType = "restored"
)

// Event describes a commit or a rejection. Snapshot is the state right
// after the commit (the unchanged state for rejections).
type Event struct {
	Type       EventType
	Production *ProductionResult
	Sale       *sales.Record
	Rejection  *RejectionError
	Snapshot   Snapshot
}

// HookFunc runs after a commit, in commit order. Hooks must not mutate the
// store; their errors are logged and never undo the commit.
type HookFunc func(ev Event) error

// Store owns raw materials, packaging, recipes and the sale log. Every
// mutation validates and applies under one exclusive lock, building new
// collections and swapping them in, so readers never see partial effects.
type Store struct {
	mu    sync.RWMutex
	state Snapshot

	hookMu sync.Mutex
	hooks  []HookFunc

	log *slog.Logger
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(snap Snapshot, log *slog.Logger, opts ...Option) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Store{log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.state = normalize(snap.Clone(), s.now())
	return s
}

// OnCommit registers a hook.
func (s *Store) OnCommit(h HookFunc) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Restore replaces the whole state, filling defaults on imported records.
func (s *Store) Restore(snap Snapshot) error {
	next := normalize(snap.Clone(), s.now())
	for _, m := range next.Materials {
		if err := m.Validate(); err != nil {
			return invalid(err)
		}
	}
	for _, p := range next.Packaging {
		if err := p.Validate(); err != nil {
			return invalid(err)
		}
	}
	for _, r := range next.Recipes {
		if err := r.Validate(); err != nil {
			return invalid(err)
		}
	}

	s.lock()
	s.state = next
	s.commitLocked(Event{Type: EventRestored})
	s.log.Info("state restored",
		"materials", len(snap.Materials),
		"packaging", len(snap.Packaging),
		"recipes", len(snap.Recipes),
		"sales", len(snap.Sales),
	)
	return nil
}

// lock serializes writers. hookMu is taken before mu so a writer waiting on
// a slow hook never holds mu, and readers keep going against the last
// committed state.
func (s *Store) lock() {
	s.hookMu.Lock()
	s.mu.Lock()
}

// unlock releases a lock taken by lock without committing.
func (s *Store) unlock() {
	s.mu.Unlock()
	s.hookMu.Unlock()
}

// commitLocked must be called after lock; it releases mu, runs hooks in
// commit order and then releases hookMu.
func (s *Store) commitLocked(ev Event) {
	ev.Snapshot = s.state.Clone()
	s.mu.Unlock()
	defer s.hookMu.Unlock()
	s.runHooks(ev)
}

// rejectLocked is commitLocked for rejections: state is unchanged.
func (s *Store) rejectLocked(rej *RejectionError) error {
	s.log.Info("operation rejected", "operation", rej.Operation, "shortfalls", len(rej.Shortfalls), "err", rej.Error())
	s.commitLocked(Event{Type: EventRejected, Rejection: rej})
	return rej
}

func (s *Store) runHooks(ev Event) {
	for _, h := range s.hooks {
		if err := h(ev); err != nil {
			s.log.Error("commit hook failed", "event", ev.Type, "err", err)
		}
	}
}

func (s *Store) today() string { return s.now().Format(time.DateOnly) }

func (s *Store) movement(kind ItemKind, id string, qty float64, t MoveType, note string) Movement {
	return Movement{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Kind:      kind,
		ItemID:    id,
		Qty:       qty,
		Type:      t,
		Note:      note,
	}
}

func (s *Store) recipeIndex(id string) int {
	for i, r := range s.state.Recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) materialIndex(id string) int {
	for i, m := range s.state.Materials {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) packagingIndex(id string) int {
	for i, p := range s.state.Packaging {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// recipeCost computes r's production cost against the current recipes and
// logs every unresolved reference.
func (s *Store) recipeCost(r recipes.Recipe, list []recipes.Recipe) float64 {
	total, gaps := recipes.Cost(r, recipes.LookupFrom(list))
	for _, g := range gaps {
		s.log.Warn("recipe reference not costed",
			"recipe_id", g.RecipeID,
			"ref_id", g.RefID,
			"cycle", g.Cycle,
		)
	}
	return total
}

func normalize(snap Snapshot, now time.Time) Snapshot {
	for i := range snap.Materials {
		snap.Materials[i] = materials.New(snap.Materials[i], now)
	}
	for i := range snap.Packaging {
		snap.Packaging[i] = packaging.New(snap.Packaging[i], now)
	}
	for i := range snap.Recipes {
		snap.Recipes[i] = recipes.New(snap.Recipes[i], now)
	}
	for i := range snap.Sales {
		if snap.Sales[i].ID == "" {
			snap.Sales[i].ID = uuid.NewString()
		}
	}
	return snap
}

// Sales returns the sale log, newest first.
func (s *Store) Sales() []sales.Record {
	s.mu.RLock()
	out := make([]sales.Record, len(s.state.Sales))
	for i, r := range s.state.Sales {
		out[i] = r.Clone()
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Movements returns the stock movement log in commit order.
func (s *Store) Movements() []Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Movement(nil), s.state.Movements...)
}
