package service

import (
	"context"
	"fmt"
	"time"

	"libris/internal/api"
	"libris/internal/domain"
	"libris/internal/events"
	"libris/internal/models"
	"libris/internal/state"

	"github.com/rs/zerolog"
)

// DefaultLoanDays is the due-date window shown optimistically; the server
// response replaces it with the real one.
const DefaultLoanDays = 14

type BorrowService struct {
	api      domain.BorrowAPI
	bus      *events.EventBus
	session  Session
	store    *state.Store[[]models.Borrow]
	notifier state.Notifier
	logger   zerolog.Logger
}

func NewBorrowService(borrowAPI domain.BorrowAPI, bus *events.EventBus, session Session, notifier state.Notifier, logger *zerolog.Logger) *BorrowService {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "borrows").Logger()
	}

	return &BorrowService{
		api:      borrowAPI,
		bus:      bus,
		session:  session,
		store:    state.NewStore([]models.Borrow{}),
		notifier: notifier,
		logger:   base,
	}
}

func (s *BorrowService) Borrows() []models.Borrow {
	return s.store.Get()
}

func (s *BorrowService) Load(ctx context.Context) error {
	page, err := s.api.ListBorrows(ctx, 1, api.ListFilter{})
	if err != nil {
		return err
	}
	s.store.Set(page.Items)
	return nil
}

// Borrow checks out a copy. The record appears in local state immediately
// with a provisional due date.
func (s *BorrowService) Borrow(ctx context.Context, bookID int64) state.Result[[]models.Borrow] {
	now := time.Now()
	optimistic := append(s.store.Get(), models.Borrow{
		UserID:     s.session.UserID(),
		BookID:     bookID,
		BorrowedAt: now,
		DueDate:    now.AddDate(0, 0, DefaultLoanDays),
	})

	result := state.Mutate(ctx, "borrows", s.store, optimistic, func(ctx context.Context) ([]models.Borrow, error) {
		if _, err := s.api.BorrowBook(ctx, bookID); err != nil {
			return nil, err
		}
		page, err := s.api.ListBorrows(ctx, 1, api.ListFilter{})
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	}, s.notifier, state.Messages{
		Success: "book borrowed",
		Failure: "could not borrow this book",
	})

	if result.OK() {
		_ = s.bus.PublishJSON(events.EventBorrowCreated, map[string]int64{"book_id": bookID})
	}
	return result
}

// Return closes an active borrow.
func (s *BorrowService) Return(ctx context.Context, borrowID int64) state.Result[[]models.Borrow] {
	optimistic := s.store.Get()
	found := false
	for i := range optimistic {
		if optimistic[i].ID != borrowID {
			continue
		}
		if !optimistic[i].Active() {
			err := fmt.Errorf("borrow %d is already returned", borrowID)
			s.notifier.Error(err.Error())
			return state.Result[[]models.Borrow]{Value: s.store.Get(), Err: err}
		}
		now := time.Now()
		optimistic[i].ReturnedAt = &now
		found = true
		break
	}
	if !found {
		err := fmt.Errorf("borrow %d not found", borrowID)
		s.notifier.Error(err.Error())
		return state.Result[[]models.Borrow]{Value: s.store.Get(), Err: err}
	}

	result := state.Mutate(ctx, "borrows", s.store, optimistic, func(ctx context.Context) ([]models.Borrow, error) {
		if _, err := s.api.ReturnBorrow(ctx, borrowID); err != nil {
			return nil, err
		}
		page, err := s.api.ListBorrows(ctx, 1, api.ListFilter{})
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	}, s.notifier, state.Messages{
		Success: "book returned",
		Failure: "could not return this book",
	})

	if result.OK() {
		_ = s.bus.PublishJSON(events.EventBorrowReturned, map[string]int64{"borrow_id": borrowID})
	}
	return result
}
