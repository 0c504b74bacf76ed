package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/cbt-backend/internal/cache"
	"github.com/scholaris/cbt-backend/internal/model"
)

func newSessionFixture(t *testing.T, ttl time.Duration) (*SessionService, *time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	svc := NewSessionService(cache.NewMemoryStoreWithClock(clock), ttl)
	svc.now = clock
	return svc, &now
}

var sessionStudent = &model.Student{ID: "STU-001", AdmissionNumber: "ADM-2026-001"}

func TestSessionCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a live session", func(t *testing.T) {
		svc, now := newSessionFixture(t, 2*time.Hour)

		sess, err := svc.Create(ctx, sessionStudent, nil, "10.0.0.5", "agent")
		require.NoError(t, err)

		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, "STU-001", sess.StudentID)
		assert.Equal(t, now.Add(2*time.Hour), sess.ExpiresAt)
		assert.True(t, sess.Active)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		a, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)
		b, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, a.Token, b.Token)
	})

	t.Run("new session terminates the previous one", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		first, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)
		_, err = svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		_, err = svc.Validate(ctx, first.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("slides the expiry window", func(t *testing.T) {
		svc, now := newSessionFixture(t, 2*time.Hour)

		sess, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		*now = now.Add(90 * time.Minute)

		renewed, err := svc.Validate(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, now.Add(2*time.Hour), renewed.ExpiresAt)
		assert.Equal(t, *now, renewed.LastActivity)

		// The slide keeps the session alive past its original expiry.
		*now = now.Add(90 * time.Minute)
		_, err = svc.Validate(ctx, sess.Token)
		assert.NoError(t, err)
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		svc, now := newSessionFixture(t, 2*time.Hour)

		sess, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		*now = now.Add(3 * time.Hour)

		_, err = svc.Validate(ctx, sess.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		_, err := svc.Validate(ctx, "no-such-token")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionRefresh(t *testing.T) {
	ctx := context.Background()
	svc, now := newSessionFixture(t, 2*time.Hour)

	sess, err := svc.Create(ctx, sessionStudent, nil, "", "")
	require.NoError(t, err)

	*now = now.Add(time.Hour)

	refreshed, err := svc.Refresh(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), refreshed.ExpiresAt)
}

func TestSessionGetForStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the live session", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		sess, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		got, err := svc.GetForStudent(ctx, "STU-001")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, sess.Token, got.Token)
	})

	t.Run("nil when the student has none", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		got, err := svc.GetForStudent(ctx, "STU-001")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil once the session expired", func(t *testing.T) {
		svc, now := newSessionFixture(t, 2*time.Hour)

		_, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		*now = now.Add(3 * time.Hour)

		got, err := svc.GetForStudent(ctx, "STU-001")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSessionTerminate(t *testing.T) {
	ctx := context.Background()

	t.Run("terminated session stops validating", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		sess, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		found, err := svc.Terminate(ctx, sess.Token)
		require.NoError(t, err)
		assert.True(t, found)

		_, err = svc.Validate(ctx, sess.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("terminating an unknown token reports not found", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		found, err := svc.Terminate(ctx, "no-such-token")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("terminate by student", func(t *testing.T) {
		svc, _ := newSessionFixture(t, 2*time.Hour)

		sess, err := svc.Create(ctx, sessionStudent, nil, "", "")
		require.NoError(t, err)

		found, err := svc.TerminateByStudent(ctx, "STU-001")
		require.NoError(t, err)
		assert.True(t, found)

		_, err = svc.Validate(ctx, sess.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
