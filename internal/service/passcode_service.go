package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/scholaris/cbt-backend/internal/cache"
	"github.com/scholaris/cbt-backend/internal/config"
	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/repository"
)

// codeGenerationAttempts bounds the retry loop on the rare event that a
// freshly generated code collides with a still-active one.
const codeGenerationAttempts = 5

// PasscodeRepo is the durable passcode store the service drives.
type PasscodeRepo interface {
	Create(ctx context.Context, p *model.Passcode) error
	GetByCode(ctx context.Context, code string) (*model.Passcode, error)
	Consume(ctx context.Context, code, studentID, ipAddress, userAgent string) (*model.Passcode, error)
	Revoke(ctx context.Context, id string) (*model.Passcode, error)
	RevokeActiveForStudent(ctx context.Context, studentID string) ([]string, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Passcode, error)
	Stats(ctx context.Context) (*model.PasscodeStats, error)
	CodeActive(ctx context.Context, code string) (bool, error)
}

// StudentDirectory resolves students from the school directory.
type StudentDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Student, error)
}

// HallDirectory resolves exam halls for seat validation.
type HallDirectory interface {
	GetByID(ctx context.Context, id string) (*model.ExamHall, error)
}

// passcodeMirror is the cache projection of a passcode. Postgres stays
// authoritative; the mirror lets validation short-circuit and lets ops
// inspect live codes in Redis.
type passcodeMirror struct {
	StudentID string `json:"student_id"`
	Used      bool   `json:"used"`
}

// PasscodeService issues, validates and revokes single-use exam passcodes.
type PasscodeService struct {
	passcodes  PasscodeRepo
	students   StudentDirectory
	halls      HallDirectory
	store      cache.Store
	defaultTTL time.Duration
	now        func() time.Time
}

// NewPasscodeService creates a new PasscodeService.
func NewPasscodeService(passcodes PasscodeRepo, students StudentDirectory, halls HallDirectory, store cache.Store, defaultTTL time.Duration) *PasscodeService {
	return &PasscodeService{
		passcodes:  passcodes,
		students:   students,
		halls:      halls,
		store:      store,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Issue generates a fresh passcode for a student, revoking any code they
// still hold. The hall and seat assignment, when present, is validated
// against the hall's capacity.
func (s *PasscodeService) Issue(ctx context.Context, req *model.IssuePasscodeRequest, issuedBy string) (*model.Passcode, error) {
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("resolve student: %w", err)
	}

	// A seat assignment is meaningless without the hall it belongs to.
	if req.SeatNumber != nil && req.ExamHallID == nil {
		return nil, ErrSeatWithoutHall
	}
	if req.ExamHallID != nil {
		hall, err := s.halls.GetByID(ctx, *req.ExamHallID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrHallNotFound
			}
			return nil, fmt.Errorf("resolve exam hall: %w", err)
		}
		if req.SeatNumber != nil && (*req.SeatNumber < 1 || *req.SeatNumber > hall.NumberOfSeats) {
			return nil, ErrSeatOutOfRange
		}
	}

	ttl := s.defaultTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	// One live code per student: a reissue invalidates whatever came before,
	// in the durable store and in the cache mirror alike.
	superseded, err := s.passcodes.RevokeActiveForStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("revoke prior passcodes: %w", err)
	}
	if s.store != nil {
		for _, code := range superseded {
			_ = s.store.Delete(ctx, config.CacheKey.PasscodeKey(code))
		}
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.Passcode{
		ID:         uuid.New().String(),
		Code:       code,
		StudentID:  student.ID,
		ExamID:     req.ExamID,
		ExamHallID: req.ExamHallID,
		SeatNumber: req.SeatNumber,
		ExpiresAt:  s.now().Add(ttl),
		CreatedBy:  issuedBy,
	}
	if err := s.passcodes.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create passcode: %w", err)
	}

	s.mirrorSet(ctx, p, false)
	return p, nil
}

// Validate resolves the student by identifier and consumes the passcode.
// Consumption is first-writer-wins in the repository; losers are told the
// code was already used. An unknown identifier gets the same rejection as a
// bad code so responses cannot be used to enumerate admission numbers.
func (s *PasscodeService) Validate(ctx context.Context, identifier, code, ipAddress, userAgent string) (*model.Student, *model.Passcode, error) {
	student, err := s.students.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPasscodeExpired
		}
		return nil, nil, fmt.Errorf("resolve student: %w", err)
	}

	p, err := s.passcodes.Consume(ctx, code, student.ID, ipAddress, userAgent)
	if err == nil {
		s.mirrorFlipUsed(ctx, p)
		return student, p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("consume passcode: %w", err)
	}

	return nil, nil, s.classifyRejection(ctx, code, student.ID)
}

// classifyRejection inspects a code that failed to consume and decides which
// rejection the student should see. Codes belonging to other students are
// reported as invalid rather than leaking their state.
func (s *PasscodeService) classifyRejection(ctx context.Context, code, studentID string) error {
	p, err := s.passcodes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPasscodeExpired
		}
		return fmt.Errorf("inspect passcode: %w", err)
	}
	if p.StudentID != studentID {
		return ErrPasscodeExpired
	}
	switch {
	case p.IsUsed:
		return ErrPasscodeUsed
	case p.RevokedAt != nil:
		return ErrPasscodeRevoked
	default:
		return ErrPasscodeExpired
	}
}

// Revoke invalidates a passcode by ID.
func (s *PasscodeService) Revoke(ctx context.Context, id string) (*model.Passcode, error) {
	p, err := s.passcodes.Revoke(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPasscodeNotFound
		}
		return nil, fmt.Errorf("revoke passcode: %w", err)
	}
	if s.store != nil {
		_ = s.store.Delete(ctx, config.CacheKey.PasscodeKey(p.Code))
	}
	return p, nil
}

// ListByStudent returns all codes issued to a student, newest first.
func (s *PasscodeService) ListByStudent(ctx context.Context, studentID string) ([]model.Passcode, error) {
	return s.passcodes.ListByStudent(ctx, studentID)
}

// Stats summarizes issued codes.
func (s *PasscodeService) Stats(ctx context.Context) (*model.PasscodeStats, error) {
	return s.passcodes.Stats(ctx)
}

func (s *PasscodeService) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < codeGenerationAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", fmt.Errorf("generate passcode: %w", err)
		}
		code := fmt.Sprintf("%06d", n.Int64())

		active, err := s.passcodes.CodeActive(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check passcode collision: %w", err)
		}
		if !active {
			return code, nil
		}
	}
	return "", errors.New("passcode space exhausted, retry later")
}

// mirrorSet writes the cache projection of a passcode. Failures are ignored;
// the durable row is authoritative.
func (s *PasscodeService) mirrorSet(ctx context.Context, p *model.Passcode, used bool) {
	if s.store == nil {
		return
	}
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(passcodeMirror{StudentID: p.StudentID, Used: used})
	if err != nil {
		return
	}
	_ = s.store.Set(ctx, config.CacheKey.PasscodeKey(p.Code), raw, ttl)
	_ = s.store.Set(ctx, config.CacheKey.StudentPasscodeKey(p.StudentID), []byte(p.Code), ttl)
}

// mirrorFlipUsed flips the cached projection to used via compare-and-swap so
// a stale writer cannot resurrect an unused state.
func (s *PasscodeService) mirrorFlipUsed(ctx context.Context, p *model.Passcode) {
	if s.store == nil {
		return
	}
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		_ = s.store.Delete(ctx, config.CacheKey.PasscodeKey(p.Code))
		return
	}
	prev, err := json.Marshal(passcodeMirror{StudentID: p.StudentID, Used: false})
	if err != nil {
		return
	}
	next, err := json.Marshal(passcodeMirror{StudentID: p.StudentID, Used: true})
	if err != nil {
		return
	}
	swapped, err := s.store.CompareAndSwap(ctx, config.CacheKey.PasscodeKey(p.Code), prev, next, ttl)
	if err != nil || swapped {
		return
	}
	// Mirror drifted from the durable row; rewrite it outright.
	_ = s.store.Set(ctx, config.CacheKey.PasscodeKey(p.Code), next, ttl)
}
