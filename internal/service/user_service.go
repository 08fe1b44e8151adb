package service

import (
	"context"
	"errors"
	"strings"

	"renthub/internal/apperr"
	"renthub/internal/database"
	"renthub/internal/domain"
	"renthub/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return nil, apperr.Invalid("user name must not be blank")
	}
	if !validEmail(user.Email) {
		return nil, apperr.Invalid("email is malformed")
	}

	err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, database.ErrDuplicateEmail) {
		return nil, apperr.Invalid("email %s already in use", user.Email)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, patch *models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("user with id %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperr.Invalid("user name must not be blank")
		}
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		if !validEmail(*patch.Email) {
			return nil, apperr.Invalid("email is malformed")
		}
		user.Email = *patch.Email
	}

	err = s.repo.UpdateUser(ctx, user)
	if errors.Is(err, database.ErrDuplicateEmail) {
		return nil, apperr.Invalid("email %s already in use", user.Email)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("user with id %d not found", id)
	}
	return user, err
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFound("user with id %d not found", id)
	}
	return err
}

// validEmail keeps the check shallow: something before and after a single
// "@", with a dot in the domain part.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
