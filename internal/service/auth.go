package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/aulaweb/aula-admin/internal/apiclient"
	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/normalize"
	"github.com/aulaweb/aula-admin/internal/observability/metrics"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/session"
	"github.com/aulaweb/aula-admin/internal/validation"
)

// Backend endpoints used by the auth flows.
const (
	ProfilePath = "usuarios/"
	RecoverPath = "autenticacion/recuperarContrasena"
	ResetPath   = "autenticacion/restablecerContrasena"
)

var (
	// ErrNoClient is returned when ctx carries no client identity.
	ErrNoClient = errors.New("no client identity in context")
	// ErrProfileUnavailable is returned by Login when the token was accepted but the
	// profile could not be loaded. The session is cleared before returning.
	ErrProfileUnavailable = errors.New("profile unavailable")

	errStaleSession = errors.New("session changed while loading profile")
	errEmptyProfile = errors.New("profile response has no identity")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API       ports.RESTClient // Required
	Tokens    ports.TokenStore // Required
	Navigator ports.Navigator  // Required
	Sessions  *session.Registry
	Validator *validation.Validator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// AuthService is the gateway between the UI and the backend auth endpoints. It owns
// the token lifecycle and keeps each client's session store in step with it.
type AuthService struct {
	api       ports.RESTClient
	tokens    ports.TokenStore
	navigator ports.Navigator
	sessions  *session.Registry
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger

	profiles singleflight.Group
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.API == nil {
		panic("AuthService requires a REST client")
	}
	if opts.Tokens == nil {
		panic("AuthService requires a token store")
	}
	if opts.Navigator == nil {
		panic("AuthService requires a navigator")
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = validation.MustNew()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AuthService{
		api:       opts.API,
		tokens:    opts.Tokens,
		navigator: opts.Navigator,
		sessions:  opts.Sessions,
		validator: opts.Validator,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With("component", "auth"),
	}
}

// LoginResult describes a completed sign-in.
type LoginResult struct {
	User    domainauth.CurrentUser
	Landing string
}

// Login authenticates credentials against the backend. The sequence is strictly
// ordered: token persisted, session marked authenticated, profile loaded, then
// navigation to the role's landing page.
func (s *AuthService) Login(ctx context.Context, creds domainauth.Credentials, returnURL string) (*LoginResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.Validation(MsgMissingCredentials)
	}
	if err := s.validator.Struct(creds); err != nil {
		return nil, err
	}

	clientID, ok := domainauth.ClientIDFromContext(ctx)
	if !ok {
		return nil, ErrNoClient
	}

	raw, err := s.api.Send(ctx, http.MethodPost, apiclient.LoginPath, creds)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, err
	}
	res := normalize.Auth(raw)
	if !res.Success || res.Token == "" {
		s.metrics.ObserveLogin(metrics.ResultError)
		msg := res.Message
		if msg == "" {
			msg = MsgBadCredentials
		}
		return nil, apperrors.Unauthorized(msg)
	}

	if saveErr := s.tokens.Save(ctx, clientID, res.Token); saveErr != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, fmt.Errorf("save token: %w", saveErr)
	}

	result, err := s.completeSignIn(ctx, s.sessions.Attach(clientID), clientID, returnURL)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return nil, err
	}
	s.metrics.ObserveLogin(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "user signed in", "user_id", result.User.ID, "role", string(result.User.Role))
	return result, nil
}

// completeSignIn runs the post-token half of a sign-in: authenticate the store, load the
// profile and navigate. A failed profile load erases the token it just stored.
func (s *AuthService) completeSignIn(ctx context.Context, st *session.Store, clientID, returnURL string) (*LoginResult, error) {
	epoch := st.MarkAuthenticated()
	user, err := s.fetchProfile(ctx, st, epoch)
	if err != nil {
		if st.Invalidate(epoch) {
			if delErr := s.tokens.Delete(ctx, clientID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to erase token after profile failure", "error", delErr)
			} else {
				s.sessions.Drop(clientID)
			}
		}
		return nil, errors.Join(ErrProfileUnavailable, err)
	}

	landing := LandingPath(user.Role, returnURL)
	s.navigator.Navigate(ctx, landing)
	return &LoginResult{User: *user, Landing: landing}, nil
}

// Logout erases the token, clears the session in one transition and navigates to login.
// The cleared store leaves the registry once the token is gone. When the delete fails the
// store stays registered, so the leftover token cannot sign the client back in on its own.
func (s *AuthService) Logout(ctx context.Context) error {
	clientID, ok := domainauth.ClientIDFromContext(ctx)
	if !ok {
		return ErrNoClient
	}
	delErr := s.tokens.Delete(ctx, clientID)
	s.sessions.Attach(clientID).Reset()
	if delErr == nil {
		s.sessions.Drop(clientID)
	}
	s.navigator.Navigate(ctx, PathLogin)
	if delErr != nil {
		return fmt.Errorf("delete token: %w", delErr)
	}
	return nil
}

// ForceLogout is the 401 hook. It behaves like Logout and never fails.
func (s *AuthService) ForceLogout(ctx context.Context) {
	s.metrics.ObserveForcedLogout()
	if err := s.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "forced logout incomplete", "error", err)
	}
}

// FetchCurrentUser loads the signed-in profile. Any failure invalidates the session that
// requested it and yields nil.
func (s *AuthService) FetchCurrentUser(ctx context.Context) *domainauth.CurrentUser {
	st, _, has, err := s.resolve(ctx)
	if err != nil || !has {
		return nil
	}
	epoch := st.Epoch()
	user, err := s.fetchProfile(ctx, st, epoch)
	if err != nil {
		s.logger.WarnContext(ctx, "profile fetch failed", "error", err)
		st.Invalidate(epoch)
		return nil
	}
	return user
}

// EnsureProfileLoaded reports whether the client has a profile, loading it when a token
// exists but no profile is cached. Concurrent callers for one client share a fetch, which
// runs detached from any one caller's cancellation and is bounded by the API client timeout.
func (s *AuthService) EnsureProfileLoaded(ctx context.Context) bool {
	st, clientID, has, err := s.resolve(ctx)
	if err != nil || !has {
		return false
	}
	if snap := st.Snapshot(); snap.Authenticated && snap.User != nil {
		return true
	}

	epoch := st.Rehydrate()
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.profiles.Do(clientID, func() (any, error) {
		user, fetchErr := s.fetchProfile(fetchCtx, st, epoch)
		if fetchErr != nil {
			st.Invalidate(epoch)
			return nil, fetchErr
		}
		return user, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "profile load failed", "error", err)
		return false
	}
	return v != nil
}

// fetchProfile calls the profile endpoint and applies the result if epoch is still current.
func (s *AuthService) fetchProfile(ctx context.Context, st *session.Store, epoch uint64) (*domainauth.CurrentUser, error) {
	raw, err := s.api.Get(ctx, ProfilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	user := normalize.CurrentUser(raw)
	if user == nil {
		return nil, errEmptyProfile
	}
	if !st.SetUser(epoch, *user) {
		return nil, errStaleSession
	}
	return user, nil
}

// RecoverPassword asks the backend to email a reset link. It returns the backend's
// confirmation message, if any.
func (s *AuthService) RecoverPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := s.validator.Var("correo", email, "required,email"); err != nil {
		return "", err
	}
	raw, err := s.api.Send(ctx, http.MethodPost, RecoverPath, map[string]string{"correo": email})
	if err != nil {
		return "", err
	}
	return normalize.ErrorMessage(raw), nil
}

// ResetResult describes the outcome of a password reset.
type ResetResult struct {
	// SignedIn is true when the backend returned a fresh token and the profile loaded.
	SignedIn bool
	Landing  string
	Message  string
	User     *domainauth.CurrentUser
}

// ResetPassword sets a new password using the emailed reset token. When the backend
// answers with a session token the client is signed in and sent to its landing page;
// otherwise it is sent back to login.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) (*ResetResult, error) {
	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return nil, apperrors.ValidationField("token", MsgInvalidResetLink)
	}
	if err := s.validator.Var("clave", newPassword, "required,min=6"); err != nil {
		return nil, err
	}

	clientID, ok := domainauth.ClientIDFromContext(ctx)
	if !ok {
		return nil, ErrNoClient
	}

	raw, err := s.api.Send(ctx, http.MethodPut, ResetPath+"/"+url.PathEscape(resetToken),
		map[string]string{"clave": newPassword})
	if err != nil {
		return nil, err
	}
	res := normalize.Auth(raw)
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = MsgResetFailed
		}
		return nil, apperrors.Validation(msg)
	}
	if res.Token == "" {
		s.navigator.Navigate(ctx, PathLogin)
		return &ResetResult{Landing: PathLogin, Message: res.Message}, nil
	}

	if saveErr := s.tokens.Save(ctx, clientID, res.Token); saveErr != nil {
		return nil, fmt.Errorf("save token: %w", saveErr)
	}
	signIn, err := s.completeSignIn(ctx, s.sessions.Attach(clientID), clientID, "")
	if err != nil {
		return nil, err
	}
	user := signIn.User
	return &ResetResult{SignedIn: true, Landing: signIn.Landing, Message: res.Message, User: &user}, nil
}

// Snapshot returns the client's current session state, reconciled with token storage:
// a session whose token has disappeared is cleared before it is reported.
func (s *AuthService) Snapshot(ctx context.Context) domainauth.Snapshot {
	st, _, _, err := s.resolve(ctx)
	if err != nil {
		return domainauth.Snapshot{}
	}
	return st.Snapshot()
}

// Subscribe observes the client's session transitions.
func (s *AuthService) Subscribe(ctx context.Context, fn session.Listener) (func(), error) {
	clientID, ok := domainauth.ClientIDFromContext(ctx)
	if !ok {
		return nil, ErrNoClient
	}
	return s.sessions.Attach(clientID).Subscribe(fn), nil
}

// HasToken reports whether the client has a persisted token.
func (s *AuthService) HasToken(ctx context.Context) bool {
	clientID, ok := domainauth.ClientIDFromContext(ctx)
	return ok && s.hasToken(ctx, clientID)
}

// CurrentUser returns the cached profile, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) *domainauth.CurrentUser {
	return s.Snapshot(ctx).User
}

// resolve returns the client's session store and whether a token is persisted for it.
// Clients without a token get a detached store. An authenticated store whose token was
// evicted is reset and dropped. A failed lookup reports no token but leaves the store alone.
func (s *AuthService) resolve(ctx context.Context) (*session.Store, string, bool, error) {
	clientID, ok := domainauth.ClientIDFromContext(ctx)
	if !ok {
		return nil, "", false, ErrNoClient
	}
	has, lookupErr := s.lookupToken(ctx, clientID)
	st := s.sessions.For(clientID, func() bool { return has })
	if !has && lookupErr == nil && st.Snapshot().Authenticated {
		st.Reset()
		s.sessions.Drop(clientID)
		s.logger.InfoContext(ctx, "session cleared, token no longer stored")
	}
	return st, clientID, has, nil
}

func (s *AuthService) hasToken(ctx context.Context, clientID string) bool {
	has, _ := s.lookupToken(ctx, clientID)
	return has
}

// lookupToken reports token presence. ErrNoToken is a definite absence and yields a nil error.
func (s *AuthService) lookupToken(ctx context.Context, clientID string) (bool, error) {
	token, err := s.tokens.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, ports.ErrNoToken) {
			return false, nil
		}
		s.logger.WarnContext(ctx, "token lookup failed", "error", err)
		return false, err
	}
	return token != "", nil
}
