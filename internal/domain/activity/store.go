package activity

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/google/uuid"
)

// Snapshot is a point-in-time copy of a store's records.
type Snapshot struct {
	Version uint64   `json:"version"`
	Records []Record `json:"records"`
}

// StoreOptions tunes store behavior.
type StoreOptions struct {
	// Lenient disables status transition checks on update.
	Lenient bool
	// SubscriberBuffer is the channel capacity handed to subscribers.
	SubscriberBuffer int
}

// Store holds the ordered activity list of one demo session. All mutations
// go through Dispatch and are applied one at a time.
type Store struct {
	clock  clock.Clock
	logger *slog.Logger
	strict bool
	buffer int

	mu          sync.RWMutex
	records     []Record
	version     uint64
	epoch       uint64
	subscribers map[chan Snapshot]struct{}
}

// NewStore creates an empty store.
func NewStore(clk clock.Clock, logger *slog.Logger, opts StoreOptions) *Store {
	if clk == nil {
		clk = clock.New()
	}
	buffer := opts.SubscriberBuffer
	if buffer <= 0 {
		buffer = 32
	}
	return &Store{
		clock:       clk,
		logger:      logger,
		strict:      !opts.Lenient,
		buffer:      buffer,
		records:     []Record{},
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Dispatch applies an action. Adds without an id get a fresh UUID. An update
// for an unknown id changes nothing and notifies nobody.
func (s *Store) Dispatch(a Action) error {
	_, err := s.dispatch(a, nil)
	return err
}

// Epoch counts resets: every CLEAR_ACTIVITIES or SET_ACTIVITIES bumps it,
// even one that leaves the records unchanged.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// DispatchIf applies a only while the store is still at epoch. It returns
// ErrStaleEpoch, changing nothing, once someone reset the store in between.
// The returned epoch is the store's epoch after the action.
func (s *Store) DispatchIf(epoch uint64, a Action) (uint64, error) {
	return s.dispatch(a, &epoch)
}

func (s *Store) dispatch(a Action, guard *uint64) (uint64, error) {
	a.At = s.clock.Now()
	if a.Kind == ActionAdd && a.Record != nil && a.Record.ID == "" {
		rec := *a.Record
		rec.ID = uuid.NewString()
		a.Record = &rec
	}
	if a.Kind == ActionSet {
		records := make([]Record, len(a.Records))
		copy(records, a.Records)
		for i := range records {
			if records[i].ID == "" {
				records[i].ID = uuid.NewString()
			}
		}
		a.Records = records
	}

	s.mu.Lock()
	if guard != nil && *guard != s.epoch {
		epoch := s.epoch
		s.mu.Unlock()
		return epoch, fmt.Errorf("%w: at %d, expected %d", ErrStaleEpoch, epoch, *guard)
	}
	next, err := reduce(s.records, a, s.strict)
	if err != nil {
		epoch := s.epoch
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("activity dispatch rejected", "kind", a.Kind, "id", a.ID, "error", err)
		}
		return epoch, err
	}
	if a.Kind == ActionClear || a.Kind == ActionSet {
		s.epoch++
	}
	epoch := s.epoch
	if sameSlice(next, s.records) {
		s.mu.Unlock()
		return epoch, nil
	}
	s.records = next
	s.version++
	snap := Snapshot{Version: s.version, Records: cloneRecords(next)}
	s.broadcastLocked(snap)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("activity dispatched", "kind", a.Kind, "version", snap.Version, "records", len(snap.Records))
	}
	return epoch, nil
}

// Add appends a record and returns its id.
func (s *Store) Add(r Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := s.Dispatch(Add(r)); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Update merges p into the record with id.
func (s *Store) Update(id string, p Patch) error {
	return s.Dispatch(Update(id, p))
}

// Clear empties the store.
func (s *Store) Clear() {
	// Clearing cannot fail.
	_ = s.Dispatch(Clear())
}

// Set replaces every record.
func (s *Store) Set(records []Record) error {
	return s.Dispatch(Set(records))
}

// Snapshot returns a copy of the current records.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Version: s.version, Records: cloneRecords(s.records)}
}

// Records returns a copy of the current records.
func (s *Store) Records() []Record {
	return s.Snapshot().Records
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOf(s.records, id)
	if idx < 0 {
		return Record{}, false
	}
	return cloneRecord(s.records[idx]), true
}

// Subscribe returns a channel receiving a snapshot after every change. The
// current state is delivered first. The caller must call Unsubscribe.
func (s *Store) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, s.buffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- Snapshot{Version: s.version, Records: cloneRecords(s.records)}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Store) Unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

// Close unsubscribes everyone.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// broadcastLocked skips subscribers whose buffer is full so one slow reader
// never blocks dispatch.
func (s *Store) broadcastLocked(snap Snapshot) {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func sameSlice(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		// Empty to empty is a no-op.
		return true
	}
	return &a[0] == &b[0]
}
