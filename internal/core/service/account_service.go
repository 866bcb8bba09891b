package service

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// AccountService covers the profile and admin-dashboard calls that have no
// cached collection behind them.
type AccountService struct {
	api       caller
	validator ports.Validator
	log       zerolog.Logger
}

func NewAccountService(gw ports.Gateway, guard ports.SessionGuard, validator ports.Validator, log zerolog.Logger) *AccountService {
	return &AccountService{
		api:       caller{gw: gw, guard: guard},
		validator: validator,
		log:       log.With().Str("component", "account").Logger(),
	}
}

// UpdateProfile saves patch and returns the backend's updated profile. The
// session's user is left as it was resolved at login.
func (s *AccountService) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	if err := validate(s.validator, patch); err != nil {
		return nil, err
	}
	reply, err := s.api.do(ctx, ports.Call{Method: http.MethodPatch, Path: pathProfile, Body: patch})
	if err != nil {
		return nil, err
	}
	user, err := decode[domain.User](reply, "profile")
	if err != nil {
		return nil, err
	}
	user.Role = domain.ParseRole(string(user.Role))
	s.log.Debug().Int64("user_id", user.ID).Msg("profile updated")
	return &user, nil
}

func (s *AccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	reply, err := s.api.get(ctx, pathUsers)
	if err != nil {
		return nil, err
	}
	users, err := decode[[]domain.User](reply, "user list")
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Role = domain.ParseRole(string(users[i].Role))
	}
	return users, nil
}

func (s *AccountService) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	reply, err := s.api.get(ctx, pathDashboard)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return decode[domain.DashboardStats](reply, "dashboard stats")
}

func (s *AccountService) Analytics(ctx context.Context) (domain.Analytics, error) {
	reply, err := s.api.get(ctx, pathAnalytics)
	if err != nil {
		return nil, err
	}
	return decode[domain.Analytics](reply, "analytics")
}

// AllTasks lists every task on the backend. Admin only.
func (s *AccountService) AllTasks(ctx context.Context) ([]domain.Task, error) {
	reply, err := s.api.get(ctx, pathAllTasks)
	if err != nil {
		return nil, err
	}
	return decode[[]domain.Task](reply, "task list")
}
