package models

import "time"

type Borrow struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Active reports whether the copy is still checked out. The backend marks an
// open borrow with a null or zero return timestamp rather than a flag.
func (b *Borrow) Active() bool {
	return b.ReturnedAt == nil || b.ReturnedAt.IsZero()
}

// Overdue is only meaningful for active borrows.
func (b *Borrow) Overdue(now time.Time) bool {
	return b.Active() && now.After(b.DueDate)
}
