package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/roadready/roadready-backend/internal/event"
	"github.com/roadready/roadready-backend/internal/model"
	"github.com/rs/zerolog"
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, externalID string, role model.Role) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

// UserService resolves external identities to internal user records.
type UserService struct {
	users     UserStore
	publisher event.Publisher
	log       zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, publisher event.Publisher, log zerolog.Logger) *UserService {
	return &UserService{
		users:     users,
		publisher: publisher,
		log:       log.With().Str("component", "user_service").Logger(),
	}
}

// Ensure resolves an external identity to a user, creating the record on
// first authenticated request. A fresh creation publishes user.created;
// side effects like the signup email hang off that event, not off the
// database layer.
func (s *UserService) Ensure(ctx context.Context, externalID string, role model.Role) (*model.User, error) {
	u, err := s.users.Create(ctx, externalID, role)
	if err == nil {
		if pubErr := s.publisher.Publish(ctx, event.NewUserCreated(u)); pubErr != nil {
			s.log.Warn().Err(pubErr).Str("user_id", u.ID.String()).Msg("publish user.created failed")
		}
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Row already exists, either from an earlier visit or a concurrent
	// first request.
	u, err = s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
