package service

import (
	"context"
	"fmt"

	"libris/internal/api"
	"libris/internal/domain"
	"libris/internal/events"
	"libris/internal/models"
	"libris/internal/state"

	"github.com/rs/zerolog"
)

// Session is the slice of the session manager services care about.
type Session interface {
	UserID() int64
	Authenticated() bool
}

// ReservationService owns the caller's reservation list and runs every
// reservation change through the optimistic mutation cycle.
type ReservationService struct {
	api      domain.ReservationAPI
	bus      *events.EventBus
	session  Session
	store    *state.Store[[]models.Reservation]
	notifier state.Notifier
	logger   zerolog.Logger
}

func NewReservationService(resAPI domain.ReservationAPI, bus *events.EventBus, session Session, notifier state.Notifier, logger *zerolog.Logger) *ReservationService {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "reservations").Logger()
	}

	return &ReservationService{
		api:      resAPI,
		bus:      bus,
		session:  session,
		store:    state.NewStore([]models.Reservation{}),
		notifier: notifier,
		logger:   base,
	}
}

// Reservations returns the current local snapshot.
func (s *ReservationService) Reservations() []models.Reservation {
	return s.store.Get()
}

// Load replaces the snapshot with the first page of server truth.
func (s *ReservationService) Load(ctx context.Context) error {
	page, err := s.api.ListReservations(ctx, 1, api.ListFilter{})
	if err != nil {
		return err
	}
	s.store.Set(page.Items)
	return nil
}

// Reserve queues the user for a book. A cancelled reservation for the same
// book is reopened to pending instead of creating a duplicate record; an
// already-open one is rejected before any network call.
func (s *ReservationService) Reserve(ctx context.Context, bookID int64) state.Result[[]models.Reservation] {
	userID := s.session.UserID()
	existing, err := s.api.BookReservations(ctx, bookID, &userID)
	if err != nil {
		s.notifier.Error(api.UserMessage(err))
		return state.Result[[]models.Reservation]{Value: s.store.Get(), Err: err}
	}

	var reopen *models.Reservation
	for i := range existing {
		switch {
		case existing[i].Open():
			err := fmt.Errorf("book %d is already reserved", bookID)
			s.notifier.Error("you already have a reservation for this book")
			return state.Result[[]models.Reservation]{Value: s.store.Get(), Err: err}
		case existing[i].Status == models.ReservationCancelled:
			reopen = &existing[i]
		}
	}

	optimistic := s.store.Get()
	if reopen != nil {
		applied := false
		for i := range optimistic {
			if optimistic[i].ID == reopen.ID {
				optimistic[i].Status = models.ReservationPending
				applied = true
				break
			}
		}
		if !applied {
			r := *reopen
			r.Status = models.ReservationPending
			optimistic = append(optimistic, r)
		}
	} else {
		// Placeholder id 0 until the server assigns one.
		optimistic = append(optimistic, models.Reservation{
			UserID: userID,
			BookID: bookID,
			Status: models.ReservationPending,
		})
	}

	result := state.Mutate(ctx, "reservations", s.store, optimistic, func(ctx context.Context) ([]models.Reservation, error) {
		if _, err := s.api.CreateReservation(ctx, bookID); err != nil {
			return nil, err
		}
		// Re-fetch authoritative state; the server may have reused a record.
		page, err := s.api.ListReservations(ctx, 1, api.ListFilter{})
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	}, s.notifier, state.Messages{
		Success: "reservation placed",
		Failure: "could not reserve this book",
	})

	if result.OK() {
		_ = s.bus.PublishJSON(events.EventReservationCreated, map[string]int64{"book_id": bookID, "user_id": userID})
	}
	return result
}

// Cancel moves one of the user's reservations to cancelled.
func (s *ReservationService) Cancel(ctx context.Context, reservationID int64) state.Result[[]models.Reservation] {
	return s.transition(ctx, reservationID, models.ReservationCancelled, state.Messages{
		Success: "reservation cancelled",
		Failure: "could not cancel this reservation",
	}, events.EventReservationCancelled)
}

// SetStatus is the admin path: any legal transition, same cycle.
func (s *ReservationService) SetStatus(ctx context.Context, reservationID int64, status string) state.Result[[]models.Reservation] {
	if !models.ValidReservationStatus(status) {
		err := fmt.Errorf("unknown reservation status %q", status)
		s.notifier.Error(err.Error())
		return state.Result[[]models.Reservation]{Value: s.store.Get(), Err: err}
	}
	return s.transition(ctx, reservationID, status, state.Messages{
		Success: "reservation updated",
		Failure: "could not update this reservation",
	}, "")
}

func (s *ReservationService) transition(ctx context.Context, reservationID int64, status string, msgs state.Messages, eventType string) state.Result[[]models.Reservation] {
	optimistic := s.store.Get()
	found := false
	for i := range optimistic {
		if optimistic[i].ID != reservationID {
			continue
		}
		if !models.CanTransition(optimistic[i].Status, status) {
			err := fmt.Errorf("reservation %d cannot go from %s to %s", reservationID, optimistic[i].Status, status)
			s.notifier.Error(err.Error())
			return state.Result[[]models.Reservation]{Value: s.store.Get(), Err: err}
		}
		optimistic[i].Status = status
		found = true
		break
	}
	if !found {
		err := fmt.Errorf("reservation %d not found", reservationID)
		s.notifier.Error(err.Error())
		return state.Result[[]models.Reservation]{Value: s.store.Get(), Err: err}
	}

	result := state.Mutate(ctx, "reservations", s.store, optimistic, func(ctx context.Context) ([]models.Reservation, error) {
		if _, err := s.api.SetReservationStatus(ctx, reservationID, status); err != nil {
			return nil, err
		}
		page, err := s.api.ListReservations(ctx, 1, api.ListFilter{})
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	}, s.notifier, msgs)

	if result.OK() && eventType != "" {
		_ = s.bus.PublishJSON(eventType, map[string]int64{"reservation_id": reservationID})
	}
	return result
}

// NextInQueue surfaces who gets the book next; used by the admin dashboard
// when a copy comes back.
func (s *ReservationService) NextInQueue(ctx context.Context, bookID int64) (*models.Reservation, error) {
	return s.api.NextReservation(ctx, bookID)
}
