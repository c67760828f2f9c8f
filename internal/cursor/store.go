package cursor

import (
	"sync"
	"time"

	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/logging"
)

// HistorySize is the number of applied events kept by a Store.
const HistorySize = 64

// Record is one applied event.
type Record struct {
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Type    string    `json:"type"`
	Event   Event     `json:"event"`
	Outcome State     `json:"state"`
}

// Store owns the cursor state for one dataset. Dispatches are serialized so
// each one sees the result of the previous.
type Store struct {
	ds  *dataset.Dataset
	log logging.Logger
	now func() time.Time

	mu      sync.Mutex
	state   State
	seq     uint64
	history []Record
	next    int
}

// NewStore creates a store starting at initial.
func NewStore(ds *dataset.Dataset, initial State, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		ds:      ds,
		log:     log,
		now:     time.Now,
		state:   initial,
		history: make([]Record, 0, HistorySize),
	}
}

// Dataset returns the tables the store projects onto.
func (s *Store) Dataset() *dataset.Dataset {
	return s.ds
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies ev and stores the result. On error the state is left
// untouched and the error is returned.
func (s *Store) Dispatch(ev Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Apply(s.ds, s.state, ev)
	if err != nil {
		s.log.Warningf("Rejected %s %+v: %v", ev.Type(), ev, err)
		return s.state, err
	}
	s.state = next
	s.seq++
	s.remember(Record{Seq: s.seq, At: s.now(), Type: ev.Type(), Event: ev, Outcome: next})
	s.log.Infof("Applied %s %+v: trace=%d index=%d image=%d center=(%.6f, %.6f)",
		ev.Type(), ev, next.ActiveTraceID, next.ProjectedIndex, next.ActiveImageID,
		next.ViewportCenter.Lat, next.ViewportCenter.Lon)
	return next, nil
}

// History returns the retained records, oldest first.
func (s *Store) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.history))
	if len(s.history) < HistorySize {
		return append(out, s.history...)
	}
	out = append(out, s.history[s.next:]...)
	return append(out, s.history[:s.next]...)
}

func (s *Store) remember(r Record) {
	if len(s.history) < HistorySize {
		s.history = append(s.history, r)
		return
	}
	s.history[s.next] = r
	s.next = (s.next + 1) % HistorySize
}
