// Package auth establishes the user identity that scopes bookmarks and notes.
//
// A Service signs in either with a custom token (a JWT carrying the user id)
// or anonymously (a fresh ULID, optionally persisted so the same anonymous
// user returns on the next run). Listeners registered with
// OnAuthStateChanged observe every change, starting with the current state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/abelbrown/gitexplorer/internal/apperr"
	"github.com/abelbrown/gitexplorer/internal/logging"
	"github.com/abelbrown/gitexplorer/internal/model"
)

// Options configures a Service.
type Options struct {
	// Secret verifies custom tokens with HMAC. Empty parses them unverified.
	Secret string
	// IdentityPath persists the anonymous user id. Empty disables persistence.
	IdentityPath string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Listener receives the current session; nil means signed out.
type Listener func(*model.Session)

// Service holds the current session and its listeners.
type Service struct {
	opts Options
	log  *log.Logger

	mu        sync.Mutex
	session   *model.Session
	listeners map[int]Listener
	nextID    int

	// notifyMu serializes notifications so every listener sees changes in
	// order. Listeners must not change auth state from inside the callback.
	notifyMu sync.Mutex
}

// NewService creates a signed-out Service.
func NewService(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		opts:      opts,
		log:       logging.WithPrefix("auth"),
		listeners: make(map[int]Listener),
	}
}

// Bootstrap signs in with token when it is non-empty, anonymously otherwise.
func (s *Service) Bootstrap(ctx context.Context, token string) (*model.Session, error) {
	if strings.TrimSpace(token) != "" {
		return s.SignInWithCustomToken(ctx, token)
	}
	return s.SignInAnonymously(ctx)
}

// SignInWithCustomToken signs in as the user named by the token's "uid"
// claim, or its "sub" claim when uid is absent.
func (s *Service) SignInWithCustomToken(ctx context.Context, token string) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.AuthenticationFailure(err)
	}
	uid, err := s.parseToken(strings.TrimSpace(token))
	if err != nil {
		s.log.Error("custom token rejected", "err", err)
		return nil, apperr.AuthenticationFailure(err)
	}

	sess := &model.Session{
		UID:        uid,
		Token:      strings.TrimSpace(token),
		SignedInAt: s.opts.Now(),
	}
	s.set(sess)
	s.log.Info("signed in", "uid", uid, "method", "custom_token")
	return sess, nil
}

func (s *Service) parseToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty token")
	}

	claims := jwt.MapClaims{}
	if s.opts.Secret != "" {
		parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return []byte(s.opts.Secret), nil
		})
		if err != nil {
			return "", fmt.Errorf("verify token: %w", err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return "", fmt.Errorf("parse token: %w", err)
		}
	}

	if uid, ok := claims["uid"].(string); ok && uid != "" {
		return uid, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", errors.New("token carries no uid or sub claim")
}

// SignInAnonymously signs in as an anonymous user. With an IdentityPath the
// id is read from that file when present and written to it otherwise.
func (s *Service) SignInAnonymously(ctx context.Context) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.AuthenticationFailure(err)
	}
	uid, err := s.anonymousID()
	if err != nil {
		s.log.Error("anonymous sign-in failed", "err", err)
		return nil, apperr.AuthenticationFailure(err)
	}

	sess := &model.Session{
		UID:        uid,
		Anonymous:  true,
		SignedInAt: s.opts.Now(),
	}
	s.set(sess)
	s.log.Info("signed in", "uid", uid, "method", "anonymous")
	return sess, nil
}

func (s *Service) anonymousID() (string, error) {
	path := s.opts.IdentityPath
	if path == "" {
		return ulid.Make().String(), nil
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id, perr := ulid.ParseStrict(strings.TrimSpace(string(data))); perr == nil {
			return id.String(), nil
		}
		s.log.Warn("identity file unreadable, minting a new id", "path", path)
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read identity: %w", err)
	}

	id := ulid.Make().String()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}

// SignOut clears the session.
func (s *Service) SignOut() {
	s.set(nil)
	s.log.Info("signed out")
}

// Current returns the current session, or nil.
func (s *Service) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// OnAuthStateChanged registers fn. It is called at once with the current
// session and again after every change. The returned func unregisters it.
func (s *Service) OnAuthStateChanged(fn Listener) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.session
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) set(sess *model.Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.session = sess
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(sess)
	}
}
