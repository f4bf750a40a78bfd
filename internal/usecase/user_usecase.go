package usecase

import (
	"context"
	"log"

	"sohbet/internal/domain/entity"
	"sohbet/internal/domain/repository"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	presence PresenceStore
}

func NewUserUseCase(userRepo repository.UserRepository, presence PresenceStore) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		presence: presence,
	}
}

type SetupProfileInput struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
}

// SetupProfile saves the display name, completing registration.
func (uc *UserUseCase) SetupProfile(ctx context.Context, userID string, input SetupProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Username = input.Username
	if err := uc.userRepo.UpsertProfile(ctx, user); err != nil {
		log.Printf("Failed to save profile for %s: %v", userID, err)
		return nil, err
	}

	log.Printf("Profile completed for user %s (%s)", userID, input.Username)
	return user, nil
}

func (uc *UserUseCase) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// ListOthers returns everyone except the caller, with the online flag
// overlaid from the realtime presence store. A presence lookup failure
// degrades to the stored flag instead of failing the listing.
func (uc *UserUseCase) ListOthers(ctx context.Context, selfID string) ([]*entity.User, error) {
	users, err := uc.userRepo.ListOthers(ctx, selfID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	statuses, err := uc.presence.GetMultiple(ctx, ids)
	if err != nil {
		log.Printf("Presence overlay failed, using stored flags: %v", err)
		return users, nil
	}

	for _, u := range users {
		if st, ok := statuses[u.ID]; ok {
			u.IsOnline = st.IsOnline
			if !st.LastSeen.IsZero() {
				u.LastActive = st.LastSeen
			}
		}
	}
	return users, nil
}
