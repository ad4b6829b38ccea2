package gatepass

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gatepass/internal/identity"
	"gatepass/internal/metrics"
	"gatepass/internal/queue"
)

// Notification event actions, published after a successful transition
// commits. The worker consumes these and emails the student.
const (
	EventApproved = "approved"
	EventRejected = "rejected"
	EventOut      = "out"
	EventIn       = "in"
)

// TransitionFunc runs against a pass locked for update and its logs,
// ordered oldest first. It may mutate the pass in place and return one
// log row to append. On error nothing is persisted, with one exception:
// a status change made before the error (the lazy expiry flip) is kept.
type TransitionFunc func(p *GatePass, logs []GateLog) (*GateLog, error)

// Store is the persistence the service runs on.
type Store interface {
	CreatePass(ctx context.Context, p *GatePass) error
	GetPass(ctx context.Context, id string) (*GatePass, []GateLog, error)
	GetPassByToken(ctx context.Context, token string) (*GatePass, []GateLog, error)
	ListPasses(ctx context.Context, scope Scope, filter ListFilter, limit, offset int) ([]GatePass, error)
	Transition(ctx context.Context, id string, apply TransitionFunc) (*GatePass, []GateLog, error)
}

// ProfileStore resolves the student profile a pass request is checked
// against. A nil profile means the student has none.
type ProfileStore interface {
	GetStudentProfile(ctx context.Context, userID string) (*identity.StudentProfile, error)
}

// Service coordinates pass creation, transitions, role-scoped reads and
// event emission. All rule evaluation happens in the policy and machine
// functions; the service sequences them and owns the clock.
type Service struct {
	store    Store
	profiles ProfileStore
	events   queue.Queue
	campus   *time.Location
	now      func() time.Time
}

// NewService creates a service. campus fixes the calendar used by the
// day-scholar same-day rule and date filters; nil means UTC.
func NewService(store Store, profiles ProfileStore, events queue.Queue, campus *time.Location) *Service {
	if campus == nil {
		campus = time.UTC
	}
	return &Service{
		store:    store,
		profiles: profiles,
		events:   events,
		campus:   campus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock. Tests pin time with it.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Campus returns the campus location, for transport-layer date parsing.
func (s *Service) Campus() *time.Location { return s.campus }

// Create validates and stores a new pending pass for the acting student.
func (s *Service) Create(ctx context.Context, actor identity.Actor, in CreateInput) (*GatePass, error) {
	if err := CanCreate(actor).Err(); err != nil {
		observe("create", err)
		return nil, err
	}
	profile, err := s.profiles.GetStudentProfile(ctx, actor.ID)
	if err != nil {
		observe("create", err)
		return nil, fmt.Errorf("load student profile: %w", err)
	}
	pass, err := NewPass(actor.ID, profile, in, s.now(), s.campus)
	if err != nil {
		observe("create", err)
		return nil, err
	}
	if err := s.store.CreatePass(ctx, pass); err != nil {
		observe("create", err)
		return nil, fmt.Errorf("create gate pass: %w", err)
	}
	observe("create", nil)
	return pass, nil
}

// Get returns one pass with its logs, applying the view policy.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id string) (*GatePass, []GateLog, error) {
	pass, logs, err := s.store.GetPass(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := CanViewPass(actor, pass).Err(); err != nil {
		metrics.Denials.WithLabelValues("view").Inc()
		return nil, nil, err
	}
	return pass, logs, nil
}

// Scan resolves a QR token for security. A lookup, never a transition.
func (s *Service) Scan(ctx context.Context, actor identity.Actor, qrToken string) (*GatePass, []GateLog, error) {
	if err := CanMarkGate(actor).Err(); err != nil {
		metrics.Denials.WithLabelValues("scan").Inc()
		return nil, nil, err
	}
	if qrToken == "" {
		return nil, nil, invalid("qr_token", "QR token is required.")
	}
	return s.store.GetPassByToken(ctx, qrToken)
}

// List returns the passes the actor may see, narrowed by filter.
func (s *Service) List(ctx context.Context, actor identity.Actor, filter ListFilter, limit, offset int) ([]GatePass, error) {
	scope := ViewScope(actor)
	if scope.Empty {
		return []GatePass{}, nil
	}
	return s.store.ListPasses(ctx, scope, filter, limit, offset)
}

// ListPending returns the actor's approval queue.
func (s *Service) ListPending(ctx context.Context, actor identity.Actor, limit, offset int) ([]GatePass, error) {
	scope, err := PendingScope(actor)
	if err != nil {
		metrics.Denials.WithLabelValues("list_pending").Inc()
		return nil, err
	}
	if scope.Empty {
		return []GatePass{}, nil
	}
	return s.store.ListPasses(ctx, scope, ListFilter{}, limit, offset)
}

// Approve decides a pending pass in the actor's favorable direction.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id, comment string) (*GatePass, []GateLog, error) {
	pass, logs, err := s.store.Transition(ctx, id, func(p *GatePass, _ []GateLog) (*GateLog, error) {
		if err := CanDecide(actor, p).Err(); err != nil {
			return nil, err
		}
		return nil, Approve(p, actor.ID, comment, s.now())
	})
	observe("approve", err)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, EventApproved, pass.ID)
	return pass, logs, nil
}

// Reject decides a pending pass against the student.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id, comment string) (*GatePass, []GateLog, error) {
	pass, logs, err := s.store.Transition(ctx, id, func(p *GatePass, _ []GateLog) (*GateLog, error) {
		if err := CanDecide(actor, p).Err(); err != nil {
			return nil, err
		}
		return nil, Reject(p, actor.ID, comment, s.now())
	})
	observe("reject", err)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, EventRejected, pass.ID)
	return pass, logs, nil
}

// MarkOut records a student exit at the gate.
func (s *Service) MarkOut(ctx context.Context, actor identity.Actor, id, notes string) (*GatePass, []GateLog, error) {
	if err := CanMarkGate(actor).Err(); err != nil {
		observe("mark_out", err)
		return nil, nil, err
	}
	pass, logs, err := s.store.Transition(ctx, id, func(p *GatePass, logs []GateLog) (*GateLog, error) {
		return MarkOut(p, logs, actor.ID, notes, s.now(), s.campus)
	})
	observe("mark_out", err)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, EventOut, pass.ID)
	return pass, logs, nil
}

// MarkIn records the student's return and consumes the pass.
func (s *Service) MarkIn(ctx context.Context, actor identity.Actor, id, notes string) (*GatePass, []GateLog, error) {
	if err := CanMarkGate(actor).Err(); err != nil {
		observe("mark_in", err)
		return nil, nil, err
	}
	pass, logs, err := s.store.Transition(ctx, id, func(p *GatePass, logs []GateLog) (*GateLog, error) {
		return MarkIn(p, logs, actor.ID, notes, s.now())
	})
	observe("mark_in", err)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, EventIn, pass.ID)
	return pass, logs, nil
}

// publish emits a notification event. Emission is fire and forget: a
// queue failure is logged and never unwinds a committed transition.
func (s *Service) publish(ctx context.Context, action, passID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.Message{Type: action, Body: []byte(passID)}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

func observe(action string, err error) {
	outcome := "ok"
	var (
		ve *ValidationError
		ae *AuthorizationError
		ce *StateConflictError
		nf *NotFoundError
	)
	switch {
	case err == nil:
	case errors.As(err, &ae):
		outcome = "denied"
		metrics.Denials.WithLabelValues(action).Inc()
	case errors.As(err, &ve):
		outcome = "invalid"
	case errors.As(err, &ce):
		outcome = "conflict"
	case errors.As(err, &nf):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.Transitions.WithLabelValues(action, outcome).Inc()
}
