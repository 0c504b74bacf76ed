package model

import "time"

// Passcode is a single-use six-digit exam access code issued to one student.
// Consumption is decided by a conditional update in the passcode repository so
// that exactly one validation attempt can win.
type Passcode struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	StudentID  string     `json:"student_id"`
	ExamID     *string    `json:"exam_id,omitempty"`
	ExamHallID *string    `json:"exam_hall_id,omitempty"`
	SeatNumber *int       `json:"seat_number,omitempty"`
	IsUsed     bool       `json:"is_used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedBy  string     `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Usable reports whether the code could still be consumed at the given time.
func (p *Passcode) Usable(now time.Time) bool {
	return !p.IsUsed && p.RevokedAt == nil && now.Before(p.ExpiresAt)
}

// PasscodeStats summarizes issued codes for the admin dashboard.
type PasscodeStats struct {
	Total   int `json:"total"`
	Used    int `json:"used"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
	Revoked int `json:"revoked"`
}

// IssuePasscodeRequest is the staff payload for generating a passcode.
type IssuePasscodeRequest struct {
	StudentID  string  `json:"student_id" binding:"required"`
	ExamID     *string `json:"exam_id,omitempty"`
	ExamHallID *string `json:"exam_hall_id,omitempty"`
	SeatNumber *int    `json:"seat_number,omitempty" binding:"omitempty,min=1"`
	TTLHours   int     `json:"ttl_hours,omitempty" binding:"omitempty,min=1,max=24"`
}

// ValidatePasscodeRequest is the student payload for redeeming a passcode.
type ValidatePasscodeRequest struct {
	AdmissionNumber string `json:"admission_number" binding:"required"`
	Passcode        string `json:"passcode" binding:"required,len=6,numeric"`
}
