package exam

// Event is pushed to subscribers whenever visible session state changes.
type Event struct {
	Type      string `json:"type"`
	Phase     Phase  `json:"phase"`
	Remaining int    `json:"remaining"`
	Answered  int    `json:"answered"`
	Page      int    `json:"page"`
	Message   string `json:"message,omitempty"`
}

const (
	EventPhase  = "phase"
	EventTick   = "tick"
	EventAnswer = "answer"
	EventPage   = "page"
)

const subscriberBuffer = 16

// Subscribe returns a channel of session events and a cancel function. Slow
// subscribers miss events rather than block the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	if s.subs == nil {
		s.subs = make(map[int]chan Event)
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publishLocked fans an event out. Caller holds s.mu.
func (s *Session) publishLocked(typ string) {
	ev := Event{
		Type:      typ,
		Phase:     s.phase,
		Remaining: s.countdown.Remaining(),
		Answered:  s.answers.Count(),
		Page:      s.current,
		Message:   s.lastError,
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
