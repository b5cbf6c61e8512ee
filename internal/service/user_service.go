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

// UserService backs the admin user table: ban/unban with optimistic rows,
// plus the signed-in user's own profile edits.
type UserService struct {
	api      domain.UserAPI
	bus      *events.EventBus
	session  Session
	users    *state.Store[[]models.User]
	profile  *state.Store[models.User]
	notifier state.Notifier
	logger   zerolog.Logger
}

func NewUserService(userAPI domain.UserAPI, bus *events.EventBus, session Session, notifier state.Notifier, logger *zerolog.Logger) *UserService {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "users").Logger()
	}

	return &UserService{
		api:      userAPI,
		bus:      bus,
		session:  session,
		users:    state.NewStore([]models.User{}),
		profile:  state.NewStore(models.User{}),
		notifier: notifier,
		logger:   base,
	}
}

func (s *UserService) Users() []models.User {
	return s.users.Get()
}

func (s *UserService) Profile() models.User {
	return s.profile.Get()
}

func (s *UserService) LoadUsers(ctx context.Context, page int, filter api.ListFilter) (api.Page[models.User], error) {
	result, err := s.api.ListUsers(ctx, page, filter)
	if err != nil {
		return api.Page[models.User]{}, err
	}
	s.users.Set(result.Items)
	return result, nil
}

func (s *UserService) LoadProfile(ctx context.Context) error {
	user, err := s.api.GetUser(ctx, s.session.UserID())
	if err != nil {
		return err
	}
	s.profile.Set(*user)
	return nil
}

// Ban flags a user. until is ignored for permanent bans.
func (s *UserService) Ban(ctx context.Context, userID int64, reason string, until *time.Time, permanent bool) state.Result[[]models.User] {
	optimistic, found := s.applyBan(userID, true, reason, until, permanent)
	if !found {
		err := fmt.Errorf("user %d not found", userID)
		s.notifier.Error(err.Error())
		return state.Result[[]models.User]{Value: s.users.Get(), Err: err}
	}

	req := api.BanRequest{Banned: true, Reason: reason, Until: until, Permanent: permanent}
	result := s.mutateBan(ctx, userID, optimistic, req, state.Messages{
		Success: "user banned",
		Failure: "could not ban this user",
	})
	if result.OK() {
		_ = s.bus.PublishJSON(events.EventUserBanned, map[string]int64{"user_id": userID})
	}
	return result
}

// Unban lifts a ban.
func (s *UserService) Unban(ctx context.Context, userID int64) state.Result[[]models.User] {
	optimistic, found := s.applyBan(userID, false, "", nil, false)
	if !found {
		err := fmt.Errorf("user %d not found", userID)
		s.notifier.Error(err.Error())
		return state.Result[[]models.User]{Value: s.users.Get(), Err: err}
	}

	result := s.mutateBan(ctx, userID, optimistic, api.BanRequest{Banned: false}, state.Messages{
		Success: "ban lifted",
		Failure: "could not lift the ban",
	})
	if result.OK() {
		_ = s.bus.PublishJSON(events.EventUserUnbanned, map[string]int64{"user_id": userID})
	}
	return result
}

func (s *UserService) applyBan(userID int64, banned bool, reason string, until *time.Time, permanent bool) ([]models.User, bool) {
	optimistic := s.users.Get()
	for i := range optimistic {
		if optimistic[i].ID == userID {
			optimistic[i].IsBanned = banned
			optimistic[i].BanReason = reason
			optimistic[i].BannedUntil = until
			optimistic[i].IsPermanentBan = permanent
			return optimistic, true
		}
	}
	return optimistic, false
}

func (s *UserService) mutateBan(ctx context.Context, userID int64, optimistic []models.User, req api.BanRequest, msgs state.Messages) state.Result[[]models.User] {
	return state.Mutate(ctx, "users", s.users, optimistic, func(ctx context.Context) ([]models.User, error) {
		canonical, err := s.api.SetBan(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		// Splice the canonical row back instead of re-fetching the page.
		current := s.users.Get()
		for i := range current {
			if current[i].ID == userID {
				current[i] = *canonical
				break
			}
		}
		return current, nil
	}, s.notifier, msgs)
}

// UpdateProfile edits the signed-in user's own fields optimistically.
func (s *UserService) UpdateProfile(ctx context.Context, req api.UpdateUserRequest) state.Result[models.User] {
	optimistic := s.profile.Get()
	if req.Name != nil {
		optimistic.Name = *req.Name
	}
	if req.Phone != nil {
		optimistic.Phone = *req.Phone
	}
	if req.Bio != nil {
		optimistic.Bio = *req.Bio
	}
	if req.Image != nil {
		optimistic.ImageURL = *req.Image
	}

	return state.Mutate(ctx, "profile", s.profile, optimistic, func(ctx context.Context) (models.User, error) {
		canonical, err := s.api.UpdateUser(ctx, s.session.UserID(), req)
		if err != nil {
			return models.User{}, err
		}
		return *canonical, nil
	}, s.notifier, state.Messages{
		Success: "profile updated",
		Failure: "could not update your profile",
	})
}
