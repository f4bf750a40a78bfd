package usecase

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"sohbet/internal/domain/entity"
	"sohbet/internal/domain/repository"
	"sohbet/pkg/errors"
)

type ChatUseCase struct {
	threadRepo repository.ThreadRepository
	userRepo   repository.UserRepository
	storage    MediaStorage
}

func NewChatUseCase(threadRepo repository.ThreadRepository, userRepo repository.UserRepository, storage MediaStorage) *ChatUseCase {
	return &ChatUseCase{
		threadRepo: threadRepo,
		userRepo:   userRepo,
		storage:    storage,
	}
}

type SendMessageInput struct {
	Kind     entity.ThreadKind `json:"kind" validate:"required,oneof=direct group"`
	ThreadID string            `json:"thread_id" validate:"required"`
	Text     string            `json:"text" validate:"required,max=4000"`
	Receiver string            `json:"receiver,omitempty"`
}

// summaryText is what the sidebar shows for a message.
func summaryText(msg *entity.Message) string {
	if msg.MediaURL == "" {
		return msg.Text
	}
	switch msg.MediaType {
	case entity.MediaKindImage:
		return "📷 Photo"
	case entity.MediaKindVideo:
		return "🎥 Video"
	default:
		return "📎 File"
	}
}

// verifyParticipant checks the sender belongs in the thread. For direct
// threads the id itself encodes the pair; for groups the member list is
// authoritative.
func (uc *ChatUseCase) verifyParticipant(ctx context.Context, kind entity.ThreadKind, threadID, userID, receiver string) error {
	if kind == entity.ThreadKindDirect {
		if receiver == "" {
			return errors.BadRequest("Receiver is required for direct messages", nil)
		}
		if receiver == userID {
			return errors.BadRequest("Cannot message yourself", nil)
		}
		if entity.DirectThreadID(userID, receiver) != threadID {
			return errors.Forbidden("You are not part of this conversation", nil)
		}
		return nil
	}

	group, err := uc.threadRepo.Get(ctx, entity.ThreadKindGroup, threadID)
	if err != nil {
		return err
	}
	for _, m := range group.Members {
		if m == userID {
			return nil
		}
	}
	return errors.Forbidden("You are not a member of this group", nil)
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	if err := uc.verifyParticipant(ctx, input.Kind, input.ThreadID, senderID, input.Receiver); err != nil {
		return nil, err
	}

	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		Text:       input.Text,
		Sender:     senderID,
		SenderName: sender.Username,
		Timestamp:  time.Now(),
		ReadBy:     []string{senderID},
		Reactions:  map[string][]string{},
	}
	if input.Kind == entity.ThreadKindDirect {
		msg.Receiver = input.Receiver
	}

	return uc.persistMessage(ctx, input.Kind, input.ThreadID, msg)
}

type SendMediaInput struct {
	Kind        entity.ThreadKind
	ThreadID    string
	Receiver    string
	ContentType string
	Caption     string
}

func (uc *ChatUseCase) SendMediaMessage(ctx context.Context, senderID string, file io.Reader, input SendMediaInput) (*entity.Message, error) {
	if err := uc.verifyParticipant(ctx, input.Kind, input.ThreadID, senderID, input.Receiver); err != nil {
		return nil, err
	}

	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	url, err := uc.storage.UploadMedia(ctx, file, input.ContentType, string(input.Kind), input.ThreadID)
	if err != nil {
		log.Printf("Media upload failed for thread %s: %v", input.ThreadID, err)
		return nil, errors.Internal("Failed to upload attachment", err)
	}

	msg := &entity.Message{
		Text:       input.Caption,
		MediaURL:   url,
		MediaType:  mediaKindFor(input.ContentType),
		Sender:     senderID,
		SenderName: sender.Username,
		Timestamp:  time.Now(),
		ReadBy:     []string{senderID},
		Reactions:  map[string][]string{},
	}
	if input.Kind == entity.ThreadKindDirect {
		msg.Receiver = input.Receiver
	}

	return uc.persistMessage(ctx, input.Kind, input.ThreadID, msg)
}

func (uc *ChatUseCase) persistMessage(ctx context.Context, kind entity.ThreadKind, threadID string, msg *entity.Message) (*entity.Message, error) {
	id, err := uc.threadRepo.CreateMessage(ctx, kind, threadID, msg)
	if err != nil {
		log.Printf("Failed to store message in thread %s: %v", threadID, err)
		return nil, err
	}
	msg.ID = id

	summary := &entity.LastMessage{
		Text:      summaryText(msg),
		From:      msg.Sender,
		To:        msg.Receiver,
		Timestamp: msg.Timestamp,
		ReadBy:    []string{msg.Sender},
	}
	if err := uc.threadRepo.SetLastMessage(ctx, kind, threadID, summary); err != nil {
		log.Printf("Failed to update last message summary for thread %s: %v", threadID, err)
		return nil, err
	}

	return msg, nil
}

func mediaKindFor(contentType string) entity.MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return entity.MediaKindImage
	case strings.HasPrefix(contentType, "video/"):
		return entity.MediaKindVideo
	default:
		return entity.MediaKindFile
	}
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, kind entity.ThreadKind, threadID, userID, receiver string) ([]*entity.Message, error) {
	if err := uc.verifyParticipant(ctx, kind, threadID, userID, receiver); err != nil {
		return nil, err
	}
	return uc.threadRepo.ListMessages(ctx, kind, threadID)
}

// MarkThreadRead acknowledges every message in the thread the reader
// has not seen yet. Own messages are skipped since the sender is seeded
// into readBy on send. Safe to call repeatedly.
func (uc *ChatUseCase) MarkThreadRead(ctx context.Context, kind entity.ThreadKind, threadID, readerID string) (int, error) {
	messages, err := uc.threadRepo.ListMessages(ctx, kind, threadID)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, msg := range messages {
		if msg.Sender == readerID || msg.ReadBySelf(readerID) {
			continue
		}
		if err := uc.threadRepo.MarkMessageRead(ctx, kind, threadID, msg.ID, readerID); err != nil {
			log.Printf("Failed to mark message %s read in thread %s: %v", msg.ID, threadID, err)
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// ToggleReaction adds the user's reaction if absent, removes it if
// present. Toggling twice restores the original state.
func (uc *ChatUseCase) ToggleReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) (*entity.Message, error) {
	if !entity.ValidReaction(emoji) {
		return nil, errors.BadRequest("Unsupported reaction", nil)
	}

	msg, err := uc.threadRepo.GetMessage(ctx, kind, threadID, messageID)
	if err != nil {
		return nil, err
	}

	if msg.ReactedBy(emoji, userID) {
		err = uc.threadRepo.RemoveReaction(ctx, kind, threadID, messageID, emoji, userID)
	} else {
		err = uc.threadRepo.AddReaction(ctx, kind, threadID, messageID, emoji, userID)
	}
	if err != nil {
		return nil, err
	}

	return uc.threadRepo.GetMessage(ctx, kind, threadID, messageID)
}

// PublishTyping raises or lowers the caller's typing flag.
func (uc *ChatUseCase) PublishTyping(ctx context.Context, kind entity.ThreadKind, threadID, userID string, typing bool) error {
	return uc.threadRepo.SetTyping(ctx, kind, threadID, userID, typing)
}

func (uc *ChatUseCase) WatchMessages(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan []*entity.Message, func(), error) {
	return uc.threadRepo.WatchMessages(ctx, kind, threadID)
}

func (uc *ChatUseCase) WatchThread(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan *entity.Thread, func(), error) {
	return uc.threadRepo.WatchThread(ctx, kind, threadID)
}
