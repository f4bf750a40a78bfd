package repository

import (
	"context"

	"sohbet/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpsertProfile(ctx context.Context, user *entity.User) error
	SetOnline(ctx context.Context, id string, online bool) error
	ListOthers(ctx context.Context, selfID string) ([]*entity.User, error)

	// WatchOthers streams the full set of users except self on every
	// change. The stream ends when the returned cancel func is called or
	// the context is done.
	WatchOthers(ctx context.Context, selfID string) (<-chan []*entity.User, func(), error)
}
