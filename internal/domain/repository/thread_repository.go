package repository

import (
	"context"

	"sohbet/internal/domain/entity"
)

// ThreadRepository covers both conversation collections. The kind
// argument selects the backing collection: direct threads live in
// "chats", group threads in "groups". Messages are a subcollection of
// either.
type ThreadRepository interface {
	Get(ctx context.Context, kind entity.ThreadKind, threadID string) (*entity.Thread, error)

	CreateGroup(ctx context.Context, group *entity.Thread) error
	GetGroupByJoinCode(ctx context.Context, code string) (*entity.Thread, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListGroupsFor(ctx context.Context, userID string) ([]*entity.Thread, error)

	// SetTyping raises or lowers the caller's typing flag on the thread
	// document, creating the document first if it does not exist yet.
	SetTyping(ctx context.Context, kind entity.ThreadKind, threadID, userID string, typing bool) error

	SetLastMessage(ctx context.Context, kind entity.ThreadKind, threadID string, lm *entity.LastMessage) error

	CreateMessage(ctx context.Context, kind entity.ThreadKind, threadID string, msg *entity.Message) (string, error)
	GetMessage(ctx context.Context, kind entity.ThreadKind, threadID, messageID string) (*entity.Message, error)
	ListMessages(ctx context.Context, kind entity.ThreadKind, threadID string) ([]*entity.Message, error)

	// MarkMessageRead appends the reader to the message's readBy set and,
	// when the message is the thread's last-message summary, to the
	// summary's readBy as well. Both appends are idempotent.
	MarkMessageRead(ctx context.Context, kind entity.ThreadKind, threadID, messageID, readerID string) error

	AddReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) error
	RemoveReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) error

	WatchMessages(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan []*entity.Message, func(), error)
	WatchThread(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan *entity.Thread, func(), error)
	WatchGroupsFor(ctx context.Context, userID string) (<-chan []*entity.Thread, func(), error)
}
