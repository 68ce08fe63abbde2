package registration

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/campus-events/internal/model"
)

// MemoryStore is an in-process Store.  Writers for one event are
// serialized through a one-slot channel so that waiting honours the
// caller's context; readers only take the read side of mu.
type MemoryStore struct {
	lockMu sync.Mutex
	locks  map[uint64]chan struct{}

	mu      sync.RWMutex
	records map[Key]*model.Registration
	codes   map[uint64]map[string]uint64 // event -> code -> participant
	nextID  uint64

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:   make(map[uint64]chan struct{}),
		records: make(map[Key]*model.Registration),
		codes:   make(map[uint64]map[string]uint64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) eventLock(eventID uint64) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	ch, ok := s.locks[eventID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[eventID] = ch
	}
	return ch
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, key Key, fn Mutator) (*model.Registration, error) {
	lock := s.eventLock(key.EventID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, Transient(ctx.Err())
	}
	defer func() { <-lock }()

	s.mu.RLock()
	var cur *model.Registration
	if r, ok := s.records[key]; ok {
		cp := *r
		cur = &cp
	}
	admitted := s.countAdmittedLocked(key.EventID)
	s.mu.RUnlock()

	next, err := fn(cur, Snapshot{Admitted: admitted})
	if err != nil {
		return nil, err
	}
	if next == nil {
		return cur, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, Transient(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, taken := s.codes[key.EventID][next.Code]; taken && owner != key.ParticipantID {
		return nil, Transient(ErrCodeCollision)
	}
	rec := *next
	rec.EventID = key.EventID
	rec.ParticipantID = key.ParticipantID
	rec.UpdatedAt = s.now()
	if cur == nil {
		s.nextID++
		rec.ID = s.nextID
		rec.CreatedAt = rec.UpdatedAt
	} else {
		rec.ID = cur.ID
		rec.CreatedAt = cur.CreatedAt
		if cur.Code != rec.Code {
			delete(s.codes[key.EventID], cur.Code)
		}
	}
	if s.codes[key.EventID] == nil {
		s.codes[key.EventID] = make(map[string]uint64)
	}
	s.codes[key.EventID][rec.Code] = key.ParticipantID
	s.records[key] = &rec
	out := rec
	return &out, nil
}

func (s *MemoryStore) countAdmittedLocked(eventID uint64) int {
	n := 0
	for k, r := range s.records {
		if k.EventID == eventID && r.Status.Admitted() {
			n++
		}
	}
	return n
}

// FindByCode implements Store.  Codes match exactly.
func (s *MemoryStore) FindByCode(_ context.Context, eventID uint64, code string) (*model.Registration, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.codes[eventID][code]
	if !ok {
		return nil, false, nil
	}
	r := *s.records[Key{EventID: eventID, ParticipantID: pid}]
	return &r, true, nil
}

// FindByParticipant implements Store.
func (s *MemoryStore) FindByParticipant(_ context.Context, eventID, participantID uint64) (*model.Registration, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[Key{EventID: eventID, ParticipantID: participantID}]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// CountAdmitted implements Store.
func (s *MemoryStore) CountAdmitted(_ context.Context, eventID uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countAdmittedLocked(eventID), nil
}

// ListByEvent implements Store.  Records are ordered by creation.
func (s *MemoryStore) ListByEvent(_ context.Context, eventID uint64) ([]model.Registration, error) {
	return s.list(func(r *model.Registration) bool { return r.EventID == eventID }), nil
}

// ListByParticipant implements Store.
func (s *MemoryStore) ListByParticipant(_ context.Context, participantID uint64) ([]model.Registration, error) {
	return s.list(func(r *model.Registration) bool { return r.ParticipantID == participantID }), nil
}

func (s *MemoryStore) list(match func(*model.Registration) bool) []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Registration, 0)
	for _, r := range s.records {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CountByStatus implements Store.
func (s *MemoryStore) CountByStatus(_ context.Context, eventID *uint64) (map[model.RegistrationStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.RegistrationStatus]int, len(model.Statuses))
	for k, r := range s.records {
		if eventID != nil && k.EventID != *eventID {
			continue
		}
		out[r.Status]++
	}
	return out, nil
}

// CountParticipants implements Store.
func (s *MemoryStore) CountParticipants(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uint64]struct{})
	for k := range s.records {
		seen[k.ParticipantID] = struct{}{}
	}
	return len(seen), nil
}
