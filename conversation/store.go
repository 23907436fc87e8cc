package conversation

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrUnknownMessage is returned for ids that are neither logged nor reserved.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrInvalidTransition is returned for delivery state moves the state machine forbids.
	ErrInvalidTransition = errors.New("invalid delivery state transition")
	// ErrOutOfOrder is returned when an append would break id ordering.
	ErrOutOfOrder = errors.New("message id out of order")
	// ErrSlotReserved is returned when a reply slot is already outstanding.
	ErrSlotReserved = errors.New("reply slot already reserved")
)

// Store is the append-only, ordered message log of one session plus the
// single reserved reply slot.
type Store struct {
	mu      sync.RWMutex
	log     []Message
	index   map[int64]int
	lastID  int64
	pending *Placeholder
	now     func() time.Time
}

// NewStore creates an empty log.
func NewStore() *Store {
	return &Store{
		index: make(map[int64]int),
		now:   time.Now,
	}
}

// Append adds msg to the end of the log. A zero ID is assigned the next
// sequence number; an ID equal to the reserved slot resolves that slot.
func (s *Store) Append(msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case msg.ID == 0:
		if s.pending != nil {
			return Message{}, fmt.Errorf("%w: slot %d is outstanding", ErrSlotReserved, s.pending.ID)
		}
		s.lastID++
		msg.ID = s.lastID

	case s.pending != nil && msg.ID == s.pending.ID:
		if !msg.State.Terminal() {
			return Message{}, fmt.Errorf("%w: slot %d resolved as %s", ErrInvalidTransition, msg.ID, msg.State)
		}
		// The slot may already have been marked with the same outcome.
		if s.pending.State != msg.State && !allowed(s.pending.State, msg.State) {
			return Message{}, fmt.Errorf("%w: slot %d %s -> %s", ErrInvalidTransition, msg.ID, s.pending.State, msg.State)
		}
		s.pending = nil

	default:
		if s.pending != nil {
			return Message{}, fmt.Errorf("%w: slot %d is outstanding", ErrSlotReserved, s.pending.ID)
		}
		if msg.ID <= s.lastID {
			return Message{}, fmt.Errorf("%w: %d after %d", ErrOutOfOrder, msg.ID, s.lastID)
		}
		s.lastID = msg.ID
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.index[msg.ID] = len(s.log)
	s.log = append(s.log, msg)
	return msg, nil
}

// Reserve allocates the id of the next responder reply. The slot starts in
// StateSent and is not part of All until it is appended.
func (s *Store) Reserve() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return 0, fmt.Errorf("%w: slot %d is outstanding", ErrSlotReserved, s.pending.ID)
	}
	s.lastID++
	s.pending = &Placeholder{ID: s.lastID, State: StateSent}
	return s.lastID, nil
}

// MarkPending moves the reserved reply slot from sent to pendingResponse.
// Logged messages never wait for a response.
func (s *Store) MarkPending(id int64) error {
	return s.transition(id, StatePendingResponse)
}

// MarkDelivered moves id from pendingResponse to delivered.
func (s *Store) MarkDelivered(id int64) error {
	return s.transition(id, StateDelivered)
}

// MarkFailed moves id from pendingResponse to failed.
func (s *Store) MarkFailed(id int64) error {
	return s.transition(id, StateFailed)
}

func (s *Store) transition(id int64, to DeliveryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state *DeliveryState
	if s.pending != nil && s.pending.ID == id {
		state = &s.pending.State
	} else if i, ok := s.index[id]; ok {
		if to == StatePendingResponse {
			return fmt.Errorf("%w: %d is logged, only the reply slot can wait", ErrInvalidTransition, id)
		}
		state = &s.log[i].State
	} else {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}

	if !allowed(*state, to) {
		return fmt.Errorf("%w: %d %s -> %s", ErrInvalidTransition, id, *state, to)
	}
	*state = to
	return nil
}

func allowed(from, to DeliveryState) bool {
	switch from {
	case StateSent:
		return to == StatePendingResponse
	case StatePendingResponse:
		return to == StateDelivered || to == StateFailed
	default:
		return false
	}
}

// Get returns the logged message with the given id.
func (s *Store) Get(id int64) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.log[i], true
}

// LastMessage returns the most recently appended message.
func (s *Store) LastMessage() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.log) == 0 {
		return Message{}, false
	}
	return s.log[len(s.log)-1], true
}

// All returns an ordered copy of the log.
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.log))
	copy(out, s.log)
	return out
}

// Pending returns the reserved reply slot, if any.
func (s *Store) Pending() (Placeholder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return Placeholder{}, false
	}
	return *s.pending, true
}

// View returns a copy of the log together with the reserved reply slot,
// read under one lock so a resolving reply shows up in exactly one of them.
func (s *Store) View() ([]Message, *Placeholder) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.log))
	copy(out, s.log)
	if s.pending == nil {
		return out, nil
	}
	p := *s.pending
	return out, &p
}

// Len returns the number of logged messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}
