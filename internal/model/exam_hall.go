package model

// ExamHall is a physical room with a fixed seat capacity. Passcodes may carry
// a hall + seat assignment; seat numbers are validated against NumberOfSeats.
type ExamHall struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NumberOfSeats int    `json:"number_of_seats"`
	IsActive      bool   `json:"is_active"`
}
