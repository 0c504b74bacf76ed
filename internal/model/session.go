package model

import "time"

// Session is a live CBT session stored only in the TTL store. The token is the
// bearer credential; a per-student pointer key enforces one live session per
// student.
type Session struct {
	Token           string     `json:"token"`
	StudentID       string     `json:"student_id"`
	AdmissionNumber string     `json:"admission_number"`
	ExamID          *string    `json:"exam_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	LastActivity    time.Time  `json:"last_activity"`
	IPAddress       string     `json:"ip_address,omitempty"`
	UserAgent       string     `json:"user_agent,omitempty"`
	Active          bool       `json:"active"`
	TerminatedAt    *time.Time `json:"terminated_at,omitempty"`
}

// Live reports whether the session is usable at the given time.
func (s *Session) Live(now time.Time) bool {
	return s.Active && s.TerminatedAt == nil && now.Before(s.ExpiresAt)
}
