package models

import "time"

type Reservation struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	BookID      int64      `json:"book_id"`
	BookTitle   string     `json:"book_title,omitempty"`
	Status      string     `json:"status"` // pending, notified, fulfilled, cancelled
	CreatedAt   time.Time  `json:"created_at"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (r *Reservation) Open() bool {
	return r.Status == ReservationPending || r.Status == ReservationNotified
}

// reservationTransitions is the legal status graph. The queue progresses
// pending -> notified -> fulfilled; cancellation is allowed from any open
// status, and a cancelled reservation can be reopened to pending instead of
// creating a duplicate record. Fulfilled is terminal.
var reservationTransitions = map[string][]string{
	ReservationPending:   {ReservationNotified, ReservationFulfilled, ReservationCancelled},
	ReservationNotified:  {ReservationFulfilled, ReservationCancelled},
	ReservationCancelled: {ReservationPending},
	ReservationFulfilled: {},
}

// ValidReservationStatus reports whether s is a known status value.
func ValidReservationStatus(s string) bool {
	_, ok := reservationTransitions[s]
	return ok
}

// CanTransition reports whether a reservation may move from one status to
// another. The backend is still the authority; this guard exists so an
// illegal request is rejected before a network call is spent on it.
func CanTransition(from, to string) bool {
	for _, next := range reservationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
