package usecase

import (
	"context"
	"log"
	"time"

	"sohbet/internal/domain/entity"
	"sohbet/internal/domain/repository"
	"sohbet/pkg/errors"
)

type AuthUseCase struct {
	firebaseAuth FirebaseAuthClient
	userRepo     repository.UserRepository
	presence     PresenceStore
}

func NewAuthUseCase(firebaseAuth FirebaseAuthClient, userRepo repository.UserRepository, presence PresenceStore) *AuthUseCase {
	return &AuthUseCase{
		firebaseAuth: firebaseAuth,
		userRepo:     userRepo,
		presence:     presence,
	}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User            *entity.User `json:"user"`
	Token           string       `json:"token"`
	ProfileComplete bool         `json:"profile_complete"`
}

// Register creates the auth account and the matching user document. The
// document starts without a username; the client routes to profile
// setup until one is saved.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	uid, err := uc.firebaseAuth.CreateUser(ctx, input.Email, input.Password)
	if err != nil {
		log.Printf("Registration failed for %s: %v", input.Email, err)
		return nil, err
	}

	user := &entity.User{
		ID:        uid,
		Email:     input.Email,
		CreatedAt: time.Now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		log.Printf("Failed to create user document for %s: %v", uid, err)
		return nil, err
	}

	token, _, err := uc.firebaseAuth.SignInWithEmailPassword(ctx, input.Email, input.Password)
	if err != nil {
		log.Printf("Post-registration sign-in failed for %s: %v", uid, err)
		return nil, errors.Internal("Account created but sign-in failed. Please log in", err)
	}

	log.Printf("Registered new user %s", uid)
	return &AuthResult{User: user, Token: token, ProfileComplete: false}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	token, uid, err := uc.firebaseAuth.SignInWithEmailPassword(ctx, input.Email, input.Password)
	if err != nil {
		log.Printf("Login failed for %s: %v", input.Email, err)
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			// Auth account exists but the document was never written
			// (interrupted registration). Recreate it.
			user = &entity.User{ID: uid, Email: input.Email, CreatedAt: time.Now()}
			if createErr := uc.userRepo.Create(ctx, user); createErr != nil {
				return nil, createErr
			}
		} else {
			log.Printf("Failed to load user %s after login: %v", uid, err)
			return nil, err
		}
	}

	return &AuthResult{
		User:            user,
		Token:           token,
		ProfileComplete: user.ProfileComplete(),
	}, nil
}

func (uc *AuthUseCase) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, err := uc.firebaseAuth.VerifyToken(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return uid, nil
}

// Logout flips the user offline in both stores. The realtime store
// would expire the record eventually; the user document would not, so
// an explicit write is required there.
func (uc *AuthUseCase) Logout(ctx context.Context, userID string) error {
	if err := uc.presence.Disconnect(ctx, userID); err != nil {
		log.Printf("Failed to clear presence on logout for %s: %v", userID, err)
	}
	if err := uc.userRepo.SetOnline(ctx, userID, false); err != nil {
		log.Printf("Failed to mark user %s offline on logout: %v", userID, err)
		return err
	}
	return nil
}
