package advisor

import (
	"context"
	"errors"
	"sync"

	"github.com/AnnaCarter465/tax-advisor/form"
)

var ErrStale = errors.New("response superseded by a newer submission")

// Session serialises the submissions of one user. Each submission cancels the one still in
// flight, and a response that arrives after a newer submission started is discarded.
type Session struct {
	advisor *Advisor

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

func NewSession(a *Advisor) *Session {
	return &Session{advisor: a}
}

func (s *Session) Submit(ctx context.Context, f form.FormState) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.mu.Unlock()

	out, err := s.advisor.Evaluate(ctx, f)

	s.mu.Lock()
	current := s.generation == gen
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		s.advisor.metrics.IncStale()
		return Outcome{}, ErrStale
	}

	return out, err
}

// Generation is the number of submissions started so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

// Sessions keys sessions by a client supplied id and drops them once no submission holds them.
type Sessions struct {
	advisor *Advisor

	mu       sync.Mutex
	sessions map[string]*sessionRef

	// acquired runs between the lookup and the submission.
	acquired func()
}

type sessionRef struct {
	session *Session
	refs    int
}

func NewSessions(a *Advisor) *Sessions {
	return &Sessions{
		advisor:  a,
		sessions: map[string]*sessionRef{},
	}
}

func (s *Sessions) Submit(ctx context.Context, id string, f form.FormState) (Outcome, error) {
	s.mu.Lock()
	ref, ok := s.sessions[id]
	if !ok {
		ref = &sessionRef{session: NewSession(s.advisor)}
		s.sessions[id] = ref
	}
	ref.refs++
	s.mu.Unlock()

	defer s.release(id, ref)

	if s.acquired != nil {
		s.acquired()
	}

	return ref.session.Submit(ctx, f)
}

func (s *Sessions) release(id string, ref *sessionRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref.refs--
	if ref.refs == 0 && s.sessions[id] == ref {
		delete(s.sessions, id)
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
