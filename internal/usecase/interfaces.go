package usecase

import (
	"context"
	"io"

	"sohbet/internal/infrastructure/presence"
)

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(ctx context.Context, email, password string) (token, uid string, err error)
}

type PresenceStore interface {
	Connect(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID string) error
	Heartbeat(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
	GetMultiple(ctx context.Context, userIDs []string) (map[string]*presence.Status, error)
}

type MediaStorage interface {
	UploadMedia(ctx context.Context, file io.Reader, contentType, collection, threadID string) (string, error)
}
