package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

type UserService struct {
	repo   *repository.Repository
	policy Policy
	logger *zap.Logger
}

func NewUserService(repo *repository.Repository, policy Policy, logger *zap.Logger) *UserService {
	return &UserService{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// Identify находит пользователя по привязанному Telegram-аккаунту
func (s *UserService) Identify(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, storageError("get user", err)
	}
	if user == nil {
		return nil, ErrAccountNotLinked
	}
	return user, nil
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// LinkTelegram привязывает Telegram-аккаунт к пользователю школы администратора.
// telegramID == nil отвязывает аккаунт.
func (s *UserService) LinkTelegram(ctx context.Context, actor model.Identity, userID int64, telegramID *int64) error {
	if !s.policy.Allow(actor, ActionLinkAccounts, actor.SchoolID) {
		return ErrForbidden
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.SchoolID == nil || *user.SchoolID != actor.SchoolID {
		return ErrUserNotFound
	}

	if err := s.repo.Users.SetTelegramID(ctx, user.ID, telegramID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return ErrTelegramInUse
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		}
		return storageError("link telegram", err)
	}

	s.logger.Info("Telegram account linked",
		zap.Int64("user_id", user.ID),
		zap.Bool("unlinked", telegramID == nil),
	)

	return nil
}
