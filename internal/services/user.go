package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/events"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/utils"
)

// UserService covers the cross-type account operations: authentication,
// deletion and the protected password-change path.
type UserService struct {
	repo   *repository.UserRepository
	hasher utils.Hasher
	bus    events.Bus
	log    *slog.Logger
}

func NewUserService(repo *repository.UserRepository, hasher utils.Hasher, bus events.Bus, log *slog.Logger) *UserService {
	if bus == nil {
		bus = events.NoopBus{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &UserService{repo: repo, hasher: hasher, bus: bus, log: log}
}

func (s *UserService) publish(ctx context.Context, name string, payload any) {
	if err := s.bus.Publish(ctx, events.New(name, payload)); err != nil {
		s.log.Warn("event publish failed", "event", name, "error", err)
	}
}

// Authenticate verifies credentials and stamps last_login. The username
// comparison is exact; credentials are never matched loosely.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(password, user.Password) {
		return nil, errs.Validation(
			"Invalid username or password!",
			"The credentials provided do not match any registered user.",
		)
	}
	now := time.Now().UTC()
	stamp := models.User{ID: user.ID, LastLogin: &now}
	if _, err := s.repo.Update(ctx, stamp); err != nil {
		// Login stamping is best effort; the session is still valid.
		s.log.Warn("last_login update failed", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now
	return user, nil
}

// GetByID resolves any account variant.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangePassword is the protected password update path.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (bool, error) {
	changed, err := s.repo.ChangePassword(ctx, userID, oldPassword, newPassword)
	if err != nil {
		return false, err
	}
	if changed {
		s.publish(ctx, events.UserPasswordUpdateEventName, map[string]string{"id": userID})
	}
	return changed, nil
}

// Remove deletes any account variant by id.
func (s *UserService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(ctx, events.UserDeleteEvent, map[string]string{"id": id})
	}
	return removed, nil
}
