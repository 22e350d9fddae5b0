package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/therapy"
)

var ErrInvalidArchetype = errors.New("invalid archetype")

type ProfileService interface {
	// Ensure creates the user row on first sight and optionally sets the
	// archetype. An empty archetype leaves the stored one untouched.
	Ensure(ctx context.Context, userID, archetype string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
}

type profileService struct {
	users repository.UserRepository
}

func NewProfileService(users repository.UserRepository) ProfileService {
	return &profileService{users: users}
}

func (s *profileService) Ensure(ctx context.Context, userID, archetype string) (*model.User, error) {
	archetype = strings.TrimSpace(archetype)
	if archetype != "" && !therapy.IsArchetype(archetype) {
		return nil, ErrInvalidArchetype
	}
	u, err := s.users.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if archetype == "" || archetype == u.Archetype {
		return u, nil
	}
	return s.users.UpdateProfile(ctx, userID, &archetype, nil)
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}
