package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scholaris/cbt-backend/internal/cache"
	"github.com/scholaris/cbt-backend/internal/config"
	"github.com/scholaris/cbt-backend/internal/model"
)

// sessionTokenBytes sizes the random token; 32 bytes encodes to 43 urlsafe
// characters.
const sessionTokenBytes = 32

// SessionService manages CBT sessions in the TTL store. Sessions are not
// persisted anywhere else; when the store loses a key the student re-enters
// with a fresh passcode.
type SessionService struct {
	store cache.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(store cache.Store, ttl time.Duration) *SessionService {
	return &SessionService{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create opens a session for a student who just redeemed a passcode. Any
// prior live session for the same student is terminated first, so one student
// holds at most one session.
func (s *SessionService) Create(ctx context.Context, student *model.Student, examID *string, ipAddress, userAgent string) (*model.Session, error) {
	if prior, err := s.tokenForStudent(ctx, student.ID); err == nil && prior != "" {
		_ = s.store.Delete(ctx, config.CacheKey.SessionKey(prior))
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &model.Session{
		Token:           token,
		StudentID:       student.ID,
		AdmissionNumber: student.AdmissionNumber,
		ExamID:          examID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
		LastActivity:    now,
		IPAddress:       ipAddress,
		UserAgent:       userAgent,
		Active:          true,
	}
	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate resolves a token to a live session and slides its expiry forward.
// Anything short of a live session returns ErrSessionNotFound.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.Session, error) {
	sess, err := s.read(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !sess.Live(now) {
		_ = s.store.Delete(ctx, config.CacheKey.SessionKey(token))
		return nil, ErrSessionNotFound
	}

	sess.LastActivity = now
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refresh is client-driven keep-alive. Validation already slides the window,
// so this is Validate under a name the keep-alive endpoint can own.
func (s *SessionService) Refresh(ctx context.Context, token string) (*model.Session, error) {
	return s.Validate(ctx, token)
}

// GetForStudent resolves whatever live session a student currently holds.
// Returns nil without error when there is none.
func (s *SessionService) GetForStudent(ctx context.Context, studentID string) (*model.Session, error) {
	token, err := s.tokenForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	sess, err := s.Peek(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Peek resolves a token without renewing it.
func (s *SessionService) Peek(ctx context.Context, token string) (*model.Session, error) {
	sess, err := s.read(ctx, token)
	if err != nil {
		return nil, err
	}
	if !sess.Live(s.now()) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Terminate ends a session. The record is flagged inactive and left to age
// out on its own TTL; the student pointer goes immediately. Reports whether a
// session existed for the token.
func (s *SessionService) Terminate(ctx context.Context, token string) (bool, error) {
	sess, err := s.read(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	now := s.now()
	sess.Active = false
	sess.TerminatedAt = &now

	if ttl := sess.ExpiresAt.Sub(now); ttl > 0 {
		raw, err := json.Marshal(sess)
		if err != nil {
			return false, fmt.Errorf("encode session: %w", err)
		}
		if err := s.store.Set(ctx, config.CacheKey.SessionKey(token), raw, ttl); err != nil {
			return false, fmt.Errorf("write session: %w", err)
		}
	} else {
		_ = s.store.Delete(ctx, config.CacheKey.SessionKey(token))
	}
	_ = s.store.Delete(ctx, config.CacheKey.StudentSessionKey(sess.StudentID))
	return true, nil
}

// TerminateByStudent ends whatever session a student currently holds.
func (s *SessionService) TerminateByStudent(ctx context.Context, studentID string) (bool, error) {
	token, err := s.tokenForStudent(ctx, studentID)
	if err != nil || token == "" {
		return false, err
	}
	return s.Terminate(ctx, token)
}

func (s *SessionService) read(ctx context.Context, token string) (*model.Session, error) {
	raw, err := s.store.Get(ctx, config.CacheKey.SessionKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	sess := &model.Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *SessionService) write(ctx context.Context, sess *model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if err := s.store.Set(ctx, config.CacheKey.SessionKey(sess.Token), raw, ttl); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	// Pointer key lets a later login find and terminate this session.
	if err := s.store.Set(ctx, config.CacheKey.StudentSessionKey(sess.StudentID), []byte(sess.Token), ttl); err != nil {
		return fmt.Errorf("write session pointer: %w", err)
	}
	return nil
}

func (s *SessionService) tokenForStudent(ctx context.Context, studentID string) (string, error) {
	raw, err := s.store.Get(ctx, config.CacheKey.StudentSessionKey(studentID))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}

func generateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
