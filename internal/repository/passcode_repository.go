package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/cbt-backend/internal/model"
)

// PasscodeRepository handles passcode data access. Consumption is a single
// conditional update so that concurrent validation attempts resolve to exactly
// one winner inside Postgres.
type PasscodeRepository struct {
	pool *pgxpool.Pool
}

// NewPasscodeRepository creates a new PasscodeRepository.
func NewPasscodeRepository(pool *pgxpool.Pool) *PasscodeRepository {
	return &PasscodeRepository{pool: pool}
}

const passcodeColumns = `id, code, student_id, exam_id, exam_hall_id, seat_number,
	is_used, used_at, COALESCE(ip_address, ''), COALESCE(user_agent, ''),
	expires_at, revoked_at, COALESCE(created_by, ''), created_at`

func scanPasscode(row interface{ Scan(dest ...any) error }) (*model.Passcode, error) {
	p := &model.Passcode{}
	err := row.Scan(&p.ID, &p.Code, &p.StudentID, &p.ExamID, &p.ExamHallID, &p.SeatNumber,
		&p.IsUsed, &p.UsedAt, &p.IPAddress, &p.UserAgent,
		&p.ExpiresAt, &p.RevokedAt, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new passcode. The partial unique index on active codes
// rejects a duplicate of a code that is still consumable.
func (r *PasscodeRepository) Create(ctx context.Context, p *model.Passcode) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO cbt_passcodes (id, code, student_id, exam_id, exam_hall_id, seat_number, expires_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		p.ID, p.Code, p.StudentID, p.ExamID, p.ExamHallID, p.SeatNumber, p.ExpiresAt, p.CreatedBy,
	).Scan(&p.CreatedAt)
}

// GetByCode retrieves a passcode by its code, preferring the most recently
// issued row when expired duplicates exist.
func (r *PasscodeRepository) GetByCode(ctx context.Context, code string) (*model.Passcode, error) {
	p, err := scanPasscode(r.pool.QueryRow(ctx,
		`SELECT `+passcodeColumns+`
		 FROM cbt_passcodes
		 WHERE code = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, code,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// Consume marks a passcode used if and only if it is still consumable and
// belongs to the given student. Exactly one concurrent caller can win; the
// rest get ErrNotFound and must inspect the row to report why.
func (r *PasscodeRepository) Consume(ctx context.Context, code, studentID, ipAddress, userAgent string) (*model.Passcode, error) {
	p, err := scanPasscode(r.pool.QueryRow(ctx,
		`UPDATE cbt_passcodes
		 SET is_used = true, used_at = now(), ip_address = $3, user_agent = $4
		 WHERE code = $1
		   AND student_id = $2
		   AND is_used = false
		   AND revoked_at IS NULL
		   AND expires_at > now()
		 RETURNING `+passcodeColumns, code, studentID, ipAddress, userAgent,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// Revoke marks a passcode revoked. Already used or revoked codes are left
// untouched and reported as ErrNotFound.
func (r *PasscodeRepository) Revoke(ctx context.Context, id string) (*model.Passcode, error) {
	p, err := scanPasscode(r.pool.QueryRow(ctx,
		`UPDATE cbt_passcodes
		 SET revoked_at = now()
		 WHERE id = $1 AND is_used = false AND revoked_at IS NULL
		 RETURNING `+passcodeColumns, id,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// RevokeActiveForStudent revokes all still-consumable codes issued to a
// student and returns the codes it touched. Called before issuing a
// replacement so one student holds at most one live code; the returned codes
// let the caller drop their cache mirrors.
func (r *PasscodeRepository) RevokeActiveForStudent(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE cbt_passcodes
		 SET revoked_at = now()
		 WHERE student_id = $1 AND is_used = false AND revoked_at IS NULL AND expires_at > now()
		 RETURNING code`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// ListByStudent retrieves all passcodes issued to a student, newest first.
func (r *PasscodeRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Passcode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+passcodeColumns+`
		 FROM cbt_passcodes
		 WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []model.Passcode
	for rows.Next() {
		p, err := scanPasscode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *p)
	}
	return codes, rows.Err()
}

// Stats summarizes issued passcodes for the admin dashboard.
func (r *PasscodeRepository) Stats(ctx context.Context) (*model.PasscodeStats, error) {
	s := &model.PasscodeStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_used),
		        COUNT(*) FILTER (WHERE NOT is_used AND revoked_at IS NULL AND expires_at > now()),
		        COUNT(*) FILTER (WHERE NOT is_used AND revoked_at IS NULL AND expires_at <= now()),
		        COUNT(*) FILTER (WHERE revoked_at IS NOT NULL)
		 FROM cbt_passcodes`,
	).Scan(&s.Total, &s.Used, &s.Active, &s.Expired, &s.Revoked)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CodeActive reports whether a still-consumable row exists for the given
// code. Used by issuance to retry on the rare random collision.
func (r *PasscodeRepository) CodeActive(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			 SELECT 1 FROM cbt_passcodes
			 WHERE code = $1 AND is_used = false AND revoked_at IS NULL AND expires_at > now()
		 )`, code,
	).Scan(&exists)
	return exists, err
}
