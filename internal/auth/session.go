package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
)

// State is the session's position in its lifecycle.
type State int

const (
	// StateUnknown is the initial state, before the stored credential has been checked.
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return ""
	}
}

// API is the subset of the backend client the session needs.
type API interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error)
	ExchangeGoogleCode(ctx context.Context, code string) (*models.AuthResponse, error)
}

// Tokens is where the session keeps its credential.
type Tokens interface {
	GetCredential() (string, bool)
	SetCredential(value string) error
	ClearCredential() error
}

// Status is an observable view of the session.
type Status struct {
	State State
	User  *models.User
}

// Loading reports whether the stored credential is still being resolved.
func (s Status) Loading() bool { return s.State == StateUnknown }

// Authenticated reports whether a user is signed in.
func (s Status) Authenticated() bool { return s.State == StateAuthenticated && s.User != nil }

type resolution struct {
	done chan struct{}
}

// Session owns the current user. It is the only writer of the credential.
type Session struct {
	api    API
	tokens Tokens
	logger *log.Logger

	mu        sync.Mutex
	state     State
	user      *models.User
	gen       uint64
	resolving *resolution
	subs      map[int]chan Status
	nextSub   int
}

// NewSession creates a [Session] in [StateUnknown].
func NewSession(api API, tokens Tokens, logger *log.Logger) *Session {
	return &Session{
		api:    api,
		tokens: tokens,
		logger: shared.WithLogger(logger, "component", "auth"),
		subs:   make(map[int]chan Status),
	}
}

// Init resolves the stored credential into a user.
//
// Without a credential the session becomes anonymous. With one, /auth/me decides:
// success authenticates, any failure clears the credential and leaves the session
// anonymous without reporting an error. Only one resolution runs at a time;
// concurrent callers wait for it. Once the state is known Init returns it as is.
//
// If ctx ends before the backend answers the session stays unknown and the
// credential is kept.
func (s *Session) Init(ctx context.Context) Status {
	s.mu.Lock()
	if r := s.resolving; r != nil {
		s.mu.Unlock()
		select {
		case <-r.done:
		case <-ctx.Done():
		}
		return s.Current()
	}
	if s.state != StateUnknown {
		st := s.status()
		s.mu.Unlock()
		return st
	}

	credential, ok := s.tokens.GetCredential()
	if !ok {
		s.set(StateAnonymous, nil)
		st := s.status()
		s.mu.Unlock()
		return st
	}

	r := &resolution{done: make(chan struct{})}
	s.resolving = r
	gen := s.gen
	s.mu.Unlock()

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolving = nil
	close(r.done)

	switch {
	case s.gen != gen:
		s.logger.Debug("discarding superseded session resolution")
	case err == nil:
		s.set(StateAuthenticated, user)
	case ctx.Err() != nil:
		s.logger.Debug("session resolution abandoned", "error", ctx.Err())
	default:
		s.logger.Debug("stored credential rejected", "error", err)
		if current, ok := s.tokens.GetCredential(); ok && current == credential {
			if err := s.tokens.ClearCredential(); err != nil {
				s.logger.Warn("failed to clear rejected credential", "error", err)
			}
		}
		s.set(StateAnonymous, nil)
	}
	return s.status()
}

// Login authenticates with email and password. API errors are returned untouched
// and leave the session as it was.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Register creates an account and signs in with it. name may be empty.
func (s *Session) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	resp, err := s.api.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// ExchangeOAuthCode completes a Google sign-in with the code from the callback.
func (s *Session) ExchangeOAuthCode(ctx context.Context, code string) (*models.User, error) {
	resp, err := s.api.ExchangeGoogleCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Logout forgets the credential and user locally. It never fails and makes no
// network call.
func (s *Session) Logout() {
	if err := s.tokens.ClearCredential(); err != nil {
		s.logger.Warn("failed to clear credential", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.set(StateAnonymous, nil)
}

// Current returns the session status without blocking.
func (s *Session) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Subscribe delivers the session status whenever it changes, latest-wins. The
// current status is delivered first.
func (s *Session) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.status()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Session) establish(resp *models.AuthResponse) (*models.User, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", shared.ErrAuthFailed)
	}
	if err := s.tokens.SetCredential(resp.AccessToken); err != nil {
		return nil, err
	}

	user := resp.User

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.set(StateAuthenticated, &user)
	s.logger.Info("signed in", "user", user.ID)
	return &user, nil
}

// set changes state and notifies subscribers. Callers hold s.mu.
func (s *Session) set(state State, user *models.User) {
	s.state, s.user = state, user

	st := s.status()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

func (s *Session) status() Status {
	var user *models.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Status{State: s.state, User: user}
}
