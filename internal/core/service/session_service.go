package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
	"github.com/clientx/workspace-client/internal/pkg/broadcast"
	"github.com/clientx/workspace-client/internal/pkg/metrics"
)

// SessionService owns the credential and the authenticated user. It is the
// only component that writes to the credential store.
//
// Every transition to anonymous bumps epoch. Network calls capture the epoch
// before suspending and drop their result if it changed in the meantime, so a
// logout can never be undone by a response that arrives after it.
type SessionService struct {
	api       caller
	creds     ports.CredentialStore
	validator ports.Validator
	log       zerolog.Logger
	subject   *broadcast.Subject[domain.SessionSnapshot]

	mu      sync.Mutex
	started bool
	state   domain.SessionState
	user    *domain.User
	token   string
	epoch   uint64
	onEnded []func()
}

var (
	_ ports.SessionGuard = (*SessionService)(nil)
	_ ports.RoleSource   = (*SessionService)(nil)
)

// NewSessionService returns a session in the unresolved state.
func NewSessionService(gw ports.Gateway, creds ports.CredentialStore, validator ports.Validator, log zerolog.Logger) *SessionService {
	s := &SessionService{
		creds:     creds,
		validator: validator,
		log:       log.With().Str("component", "session").Logger(),
		subject:   broadcast.New[domain.SessionSnapshot](),
		state:     domain.StateUnresolved,
	}
	s.api = caller{gw: gw, guard: s}
	s.subject.Publish(s.snapshotLocked())
	return s
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// Start restores the session from the credential store. It runs once per
// SessionService; later calls return ErrAlreadyStarted with the current
// snapshot. Restoration failures are not reported: the session silently
// becomes anonymous and the stored credential is erased.
func (s *SessionService) Start(ctx context.Context) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	if s.started {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, domain.ErrAlreadyStarted
	}
	s.started = true
	s.transitionLocked(domain.StateRestoring)
	epoch := s.epoch
	s.mu.Unlock()

	cred, err := s.creds.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("credential store unreadable, starting anonymous")
	}
	if err != nil || !cred.Present() {
		return s.finishRestore(ctx, epoch, nil, "", false), nil
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.log.Info().Str("reason", domain.Message(err)).Msg("stored credential no longer valid")
		return s.finishRestore(ctx, epoch, nil, "", true), nil
	}
	return s.finishRestore(ctx, epoch, user, cred.AccessToken, false), nil
}

func (s *SessionService) finishRestore(ctx context.Context, epoch uint64, user *domain.User, token string, clear bool) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		// A logout during restoration already settled the session.
		return s.snapshotLocked()
	}
	if user == nil {
		if clear {
			s.clearStoreLocked(ctx)
		}
		s.becomeAnonymousLocked()
		return s.snapshotLocked()
	}
	s.becomeAuthenticatedLocked(ctx, user, token)
	return s.snapshotLocked()
}

// Login authenticates against the backend, stores the returned credential
// and resolves the user's role. Callers must not overlap Login calls.
//
// The login call carries no access credential, so a refused password never
// ends the current session. A successful login over an authenticated session
// ends that session first and runs the OnEnded hooks.
//
// A rejection is returned verbatim (domain.Message gives the backend's
// reason). If the session is ended by Logout while the call is in flight,
// nothing is stored and ErrSessionEnded is returned.
func (s *SessionService) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	// A login before or during restoration settles startup; a restoration
	// still in flight is discarded.
	if !s.started || s.state == domain.StateRestoring {
		s.started = true
		s.becomeAnonymousLocked()
	}
	epoch := s.epoch
	s.mu.Unlock()

	reply, err := s.api.do(ctx, ports.Call{
		Method:    http.MethodPost,
		Path:      pathLogin,
		Body:      loginRequest{Username: username, Password: password},
		Anonymous: true,
	})
	if err != nil {
		s.log.Info().Str("username", username).Str("reason", domain.Message(err)).Msg("login rejected")
		return err
	}
	tokens, err := decode[tokenPair](reply, "login response")
	if err != nil {
		return err
	}
	if tokens.Access == "" {
		return domain.Rejected("login response carried no access credential")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return domain.ErrSessionEnded
	}
	// The previous user's session ends before the new one is installed.
	var hooks []func()
	if s.state == domain.StateAuthenticated {
		s.log.Info().Str("previous", s.user.Username).Str("username", username).Msg("login replaces the current session")
		s.becomeAnonymousLocked()
		hooks = s.endedHooksLocked(true)
		epoch = s.epoch
	}
	if err := s.creds.Save(ctx, domain.Credential{AccessToken: tokens.Access, RenewalToken: tokens.Refresh}); err != nil {
		s.mu.Unlock()
		runHooks(hooks)
		return err
	}
	s.mu.Unlock()
	runHooks(hooks)

	user, err := s.fetchProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return domain.ErrSessionEnded
	}
	if err != nil {
		s.clearStoreLocked(ctx)
		s.becomeAnonymousLocked()
		return err
	}
	s.becomeAuthenticatedLocked(ctx, user, tokens.Access)
	s.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("logged in")
	return nil
}

// Logout erases the credential and ends the session locally. It never
// touches the network and always leaves the session anonymous; the returned
// error only reports a credential store failure.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasAuthenticated := s.state == domain.StateAuthenticated
	s.started = true
	err := s.creds.Clear(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to clear credential store on logout")
	}
	s.becomeAnonymousLocked()
	hooks := s.endedHooksLocked(wasAuthenticated)
	s.mu.Unlock()

	runHooks(hooks)
	s.log.Info().Msg("logged out")
	return err
}

// Register creates an account. It does not affect the session.
func (s *SessionService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := validate(s.validator, reg); err != nil {
		return nil, err
	}
	reply, err := s.api.do(ctx, ports.Call{Method: http.MethodPost, Path: pathRegister, Body: reg})
	if err != nil {
		return nil, err
	}
	resp, err := decode[registerResponse](reply, "register response")
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Renew exchanges the stored renewal credential for a new access credential.
// A refused renewal ends the session.
func (s *SessionService) Renew(ctx context.Context) error {
	cred, err := s.creds.Load(ctx)
	if err != nil {
		return err
	}
	if cred.RenewalToken == "" {
		return domain.ErrNoRenewal
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	reply, err := s.api.do(ctx, ports.Call{
		Method: http.MethodPost,
		Path:   pathTokenRefresh,
		Body:   refreshRequest{Refresh: cred.RenewalToken},
	})
	if err != nil {
		return err
	}
	tokens, err := decode[tokenPair](reply, "refresh response")
	if err != nil {
		return err
	}
	if tokens.Access == "" {
		return domain.Rejected("refresh response carried no access credential")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return domain.ErrSessionEnded
	}
	if err := s.creds.Save(ctx, domain.Credential{AccessToken: tokens.Access, RenewalToken: tokens.Refresh}); err != nil {
		return err
	}
	if s.state == domain.StateAuthenticated {
		s.token = tokens.Access
	}
	s.log.Debug().Msg("access credential renewed")
	return nil
}

// RequestPasswordReset asks the backend to mail a reset link to email.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) error {
	req := passwordResetRequest{Email: email}
	if err := validate(s.validator, req); err != nil {
		return err
	}
	_, err := s.api.do(ctx, ports.Call{Method: http.MethodPost, Path: pathPasswordReset, Body: req, Anonymous: true})
	return err
}

// CredentialRejected ends the session when credential is the one it
// currently holds. Refusals of any other credential are stale (the session
// already ended, or a newer login replaced it) and are ignored.
func (s *SessionService) CredentialRejected(ctx context.Context, credential string) {
	s.mu.Lock()
	if credential == "" || s.state != domain.StateAuthenticated || credential != s.token {
		s.mu.Unlock()
		metrics.CredentialRejectionsTotal.WithLabelValues("ignored").Inc()
		return
	}
	s.clearStoreLocked(ctx)
	s.becomeAnonymousLocked()
	hooks := s.endedHooksLocked(true)
	s.mu.Unlock()

	metrics.CredentialRejectionsTotal.WithLabelValues("cleared").Inc()
	s.log.Warn().Msg("backend refused the access credential, session ended")
	runHooks(hooks)
}

// OnEnded registers fn to run, outside the session lock, whenever an
// authenticated session ends through logout, a refused credential or a login
// as another user.
func (s *SessionService) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = append(s.onEnded, fn)
}

// Snapshot returns the current session view.
func (s *SessionService) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe streams session snapshots; see broadcast.Subject.
func (s *SessionService) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	return s.subject.Subscribe()
}

// CurrentRole returns the role of the authenticated user, or employee.
func (s *SessionService) CurrentRole() domain.Role {
	return s.Snapshot().Role()
}

// Close releases subscribers.
func (s *SessionService) Close() {
	s.subject.Close()
}

func (s *SessionService) fetchProfile(ctx context.Context) (*domain.User, error) {
	reply, err := s.api.get(ctx, pathProfile)
	if err != nil {
		return nil, err
	}
	user, err := decode[domain.User](reply, "profile")
	if err != nil {
		return nil, err
	}
	user.Role = domain.ParseRole(string(user.Role))
	return &user, nil
}

func (s *SessionService) becomeAuthenticatedLocked(ctx context.Context, user *domain.User, token string) {
	s.user = user
	s.token = token
	if err := s.creds.SaveRole(ctx, user.Role); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache role hint")
	}
	s.transitionLocked(domain.StateAuthenticated)
}

func (s *SessionService) becomeAnonymousLocked() {
	s.user = nil
	s.token = ""
	s.epoch++
	s.transitionLocked(domain.StateAnonymous)
}

func (s *SessionService) clearStoreLocked(ctx context.Context) {
	if err := s.creds.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to clear credential store")
	}
}

func (s *SessionService) transitionLocked(to domain.SessionState) {
	s.state = to
	metrics.SessionTransitionsTotal.WithLabelValues(to.String()).Inc()
	s.subject.Publish(s.snapshotLocked())
}

func (s *SessionService) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		State:   s.state,
		Loading: s.state == domain.StateRestoring,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *SessionService) endedHooksLocked(wasAuthenticated bool) []func() {
	if !wasAuthenticated || len(s.onEnded) == 0 {
		return nil
	}
	hooks := make([]func(), len(s.onEnded))
	copy(hooks, s.onEnded)
	return hooks
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}
