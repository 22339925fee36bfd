package auth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/gitexplorer/internal/apperr"
	"github.com/abelbrown/gitexplorer/internal/model"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestCustomTokenUnverified(t *testing.T) {
	svc := NewService(Options{})
	tok := sign(t, "whatever", jwt.MapClaims{"uid": "user-1"})

	sess, err := svc.SignInWithCustomToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UID)
	assert.False(t, sess.Anonymous)
	assert.Equal(t, tok, sess.Token)
	assert.Same(t, sess, svc.Current())
}

func TestCustomTokenFallsBackToSubject(t *testing.T) {
	svc := NewService(Options{})
	tok := sign(t, "k", jwt.MapClaims{"sub": "subject-7"})

	sess, err := svc.SignInWithCustomToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "subject-7", sess.UID)
}

func TestCustomTokenVerified(t *testing.T) {
	svc := NewService(Options{Secret: "s3cret"})

	good := sign(t, "s3cret", jwt.MapClaims{"uid": "u", "exp": time.Now().Add(time.Hour).Unix()})
	sess, err := svc.SignInWithCustomToken(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, "u", sess.UID)

	forged := sign(t, "other", jwt.MapClaims{"uid": "u"})
	_, err = svc.SignInWithCustomToken(context.Background(), forged)
	assert.True(t, apperr.Is(err, apperr.CodeAuthenticationFailure), "forged token: %v", err)

	expired := sign(t, "s3cret", jwt.MapClaims{"uid": "u", "exp": time.Now().Add(-time.Hour).Unix()})
	_, err = svc.SignInWithCustomToken(context.Background(), expired)
	assert.True(t, apperr.Is(err, apperr.CodeAuthenticationFailure), "expired token: %v", err)
}

func TestCustomTokenFailures(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"blank spaces": "   ",
		"garbage":      "not-a-jwt",
		"missing uid":  sign(t, "k", jwt.MapClaims{"role": "x"}),
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			svc := NewService(Options{})
			sess, err := svc.SignInWithCustomToken(context.Background(), tok)
			assert.Nil(t, sess)
			assert.Equal(t, apperr.CodeAuthenticationFailure, apperr.CodeOf(err))
			assert.Equal(t, apperr.MsgAuthenticationFailure, apperr.UserMessage(err, apperr.CodeRetrievalFailed))
			assert.Nil(t, svc.Current())
		})
	}
}

func TestAnonymousWithoutPersistence(t *testing.T) {
	svc := NewService(Options{})
	a, err := svc.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Anonymous)
	assert.Empty(t, a.Token)
	_, err = ulid.ParseStrict(a.UID)
	assert.NoError(t, err, "anonymous uid should be a ULID")

	b, err := NewService(Options{}).SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.UID, b.UID)
}

func TestAnonymousPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity")

	first, err := NewService(Options{IdentityPath: path}).SignInAnonymously(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first.UID, strings.TrimSpace(string(data)))

	second, err := NewService(Options{IdentityPath: path}).SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)
}

func TestAnonymousReplacesCorruptIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	sess, err := NewService(Options{IdentityPath: path}).SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "garbage", sess.UID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sess.UID, strings.TrimSpace(string(data)))
}

func TestBootstrap(t *testing.T) {
	svc := NewService(Options{})
	sess, err := svc.Bootstrap(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, sess.Anonymous)

	tok := sign(t, "k", jwt.MapClaims{"uid": "known"})
	sess, err = svc.Bootstrap(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "known", sess.UID)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(Options{}).SignInAnonymously(ctx)
	assert.True(t, apperr.Is(err, apperr.CodeAuthenticationFailure))
}

func TestOnAuthStateChanged(t *testing.T) {
	svc := NewService(Options{})

	var mu sync.Mutex
	var seen []*model.Session
	unsubscribe := svc.OnAuthStateChanged(func(s *model.Session) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.Len(t, seen, 1, "listener should fire immediately")
	assert.Nil(t, seen[0])

	sess, err := svc.SignInAnonymously(context.Background())
	require.NoError(t, err)
	svc.SignOut()

	require.Len(t, seen, 3)
	assert.Same(t, sess, seen[1])
	assert.Nil(t, seen[2])

	unsubscribe()
	unsubscribe()
	_, err = svc.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 3, "unsubscribed listener must not fire")
}

func TestLateListenerSeesCurrentSession(t *testing.T) {
	svc := NewService(Options{})
	sess, err := svc.SignInAnonymously(context.Background())
	require.NoError(t, err)

	var got *model.Session
	svc.OnAuthStateChanged(func(s *model.Session) { got = s })
	assert.Same(t, sess, got)
}

func TestSignedInAtUsesClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(Options{Now: func() time.Time { return fixed }})
	sess, err := svc.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, sess.SignedInAt)
}
