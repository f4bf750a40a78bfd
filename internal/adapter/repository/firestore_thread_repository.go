package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sohbet/internal/domain/entity"
	"sohbet/internal/domain/repository"
	"sohbet/pkg/errors"
	"sohbet/pkg/logger"
)

const (
	chatsCollection    = "chats"
	groupsCollection   = "groups"
	messagesCollection = "messages"
)

type firestoreThreadRepository struct {
	client *firestore.Client
}

func NewFirestoreThreadRepository(client *firestore.Client) repository.ThreadRepository {
	return &firestoreThreadRepository{client: client}
}

func collectionFor(kind entity.ThreadKind) string {
	if kind == entity.ThreadKindGroup {
		return groupsCollection
	}
	return chatsCollection
}

func (r *firestoreThreadRepository) threadRef(kind entity.ThreadKind, threadID string) *firestore.DocumentRef {
	return r.client.Collection(collectionFor(kind)).Doc(threadID)
}

func (r *firestoreThreadRepository) messageRef(kind entity.ThreadKind, threadID, messageID string) *firestore.DocumentRef {
	return r.threadRef(kind, threadID).Collection(messagesCollection).Doc(messageID)
}

func threadFromDoc(doc *firestore.DocumentSnapshot) (*entity.Thread, error) {
	var thread entity.Thread
	if err := doc.DataTo(&thread); err != nil {
		return nil, errors.Internal("Failed to parse thread data", err)
	}
	thread.ID = doc.Ref.ID
	return &thread, nil
}

func messageFromDoc(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	msg.ID = doc.Ref.ID
	return &msg, nil
}

func (r *firestoreThreadRepository) Get(ctx context.Context, kind entity.ThreadKind, threadID string) (*entity.Thread, error) {
	doc, err := r.threadRef(kind, threadID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Thread not found", err)
		}
		return nil, errors.Internal("Failed to get thread", err)
	}
	return threadFromDoc(doc)
}

func (r *firestoreThreadRepository) CreateGroup(ctx context.Context, group *entity.Thread) error {
	ref := r.client.Collection(groupsCollection).NewDoc()
	group.ID = ref.ID
	if _, err := ref.Set(ctx, group); err != nil {
		return errors.Internal("Failed to create group", err)
	}
	return nil
}

func (r *firestoreThreadRepository) GetGroupByJoinCode(ctx context.Context, code string) (*entity.Thread, error) {
	iter := r.client.Collection(groupsCollection).Where("joinCode", "==", code).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Group not found", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query group by join code", err)
	}
	return threadFromDoc(doc)
}

func (r *firestoreThreadRepository) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := r.client.Collection(groupsCollection).Doc(groupID).Update(ctx, []firestore.Update{
		{Path: "members", Value: firestore.ArrayUnion(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Group not found", err)
		}
		return errors.Internal("Failed to add group member", err)
	}
	return nil
}

func (r *firestoreThreadRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	_, err := r.client.Collection(groupsCollection).Doc(groupID).Update(ctx, []firestore.Update{
		{Path: "members", Value: firestore.ArrayRemove(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Group not found", err)
		}
		return errors.Internal("Failed to remove group member", err)
	}
	return nil
}

func (r *firestoreThreadRepository) ListGroupsFor(ctx context.Context, userID string) ([]*entity.Thread, error) {
	iter := r.client.Collection(groupsCollection).Where("members", "array-contains", userID).Documents(ctx)
	defer iter.Stop()

	var groups []*entity.Thread
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list groups", err)
		}
		group, err := threadFromDoc(doc)
		if err != nil {
			logger.Warn("Skipping malformed group document %s: %v", doc.Ref.ID, err)
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (r *firestoreThreadRepository) SetTyping(ctx context.Context, kind entity.ThreadKind, threadID, userID string, typing bool) error {
	ref := r.threadRef(kind, threadID)
	_, err := ref.Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"typing", userID}, Value: typing},
	})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return errors.Internal("Failed to update typing indicator", err)
	}

	// First keystroke in a brand new thread: seed the document with the
	// typing map embedded so the flag is never lost.
	_, err = ref.Set(ctx, map[string]interface{}{
		"typing":    map[string]bool{userID: typing},
		"createdAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to seed thread for typing indicator", err)
	}
	return nil
}

func (r *firestoreThreadRepository) SetLastMessage(ctx context.Context, kind entity.ThreadKind, threadID string, lm *entity.LastMessage) error {
	_, err := r.threadRef(kind, threadID).Set(ctx, map[string]interface{}{
		"lastMessage": lm,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update last message summary", err)
	}
	return nil
}

func (r *firestoreThreadRepository) CreateMessage(ctx context.Context, kind entity.ThreadKind, threadID string, msg *entity.Message) (string, error) {
	ref := r.threadRef(kind, threadID).Collection(messagesCollection).NewDoc()
	msg.ID = ref.ID
	if _, err := ref.Set(ctx, msg); err != nil {
		return "", errors.Internal("Failed to create message", err)
	}
	return ref.ID, nil
}

func (r *firestoreThreadRepository) GetMessage(ctx context.Context, kind entity.ThreadKind, threadID, messageID string) (*entity.Message, error) {
	doc, err := r.messageRef(kind, threadID, messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message not found", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return messageFromDoc(doc)
}

func (r *firestoreThreadRepository) ListMessages(ctx context.Context, kind entity.ThreadKind, threadID string) ([]*entity.Message, error) {
	iter := r.threadRef(kind, threadID).Collection(messagesCollection).
		OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list messages", err)
		}
		msg, err := messageFromDoc(doc)
		if err != nil {
			logger.Warn("Skipping malformed message document %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *firestoreThreadRepository) MarkMessageRead(ctx context.Context, kind entity.ThreadKind, threadID, messageID, readerID string) error {
	msgRef := r.messageRef(kind, threadID, messageID)
	msg, err := r.GetMessage(ctx, kind, threadID, messageID)
	if err != nil {
		return err
	}

	_, err = msgRef.Update(ctx, []firestore.Update{
		{Path: "readBy", Value: firestore.ArrayUnion(readerID)},
	})
	if err != nil {
		return errors.Internal("Failed to mark message as read", err)
	}

	// Keep the sidebar summary in sync when the acknowledged message is
	// the latest one on the thread.
	thread, err := r.Get(ctx, kind, threadID)
	if err != nil {
		return err
	}
	if thread.LastMessage == nil || !thread.LastMessage.Timestamp.Equal(msg.Timestamp) {
		return nil
	}

	_, err = r.threadRef(kind, threadID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"lastMessage", "readBy"}, Value: firestore.ArrayUnion(readerID)},
	})
	if err != nil {
		return errors.Internal("Failed to update last message read state", err)
	}
	return nil
}

func (r *firestoreThreadRepository) AddReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) error {
	_, err := r.messageRef(kind, threadID, messageID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"reactions", emoji}, Value: firestore.ArrayUnion(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message not found", err)
		}
		return errors.Internal("Failed to add reaction", err)
	}
	return nil
}

func (r *firestoreThreadRepository) RemoveReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) error {
	_, err := r.messageRef(kind, threadID, messageID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"reactions", emoji}, Value: firestore.ArrayRemove(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message not found", err)
		}
		return errors.Internal("Failed to remove reaction", err)
	}
	return nil
}

func (r *firestoreThreadRepository) WatchMessages(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan []*entity.Message, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	snapIter := r.threadRef(kind, threadID).Collection(messagesCollection).
		OrderBy("timestamp", firestore.Asc).Snapshots(ctx)

	out := make(chan []*entity.Message, 1)
	go func() {
		defer close(out)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Message watch stream for thread %s ended: %v", threadID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read message snapshot for thread %s: %v", threadID, err)
				continue
			}

			var messages []*entity.Message
			for _, doc := range docs {
				msg, err := messageFromDoc(doc)
				if err != nil {
					logger.Warn("Skipping malformed message document %s: %v", doc.Ref.ID, err)
					continue
				}
				messages = append(messages, msg)
			}

			select {
			case out <- messages:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

func (r *firestoreThreadRepository) WatchThread(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan *entity.Thread, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	snapIter := r.threadRef(kind, threadID).Snapshots(ctx)

	out := make(chan *entity.Thread, 1)
	go func() {
		defer close(out)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Thread watch stream for %s ended: %v", threadID, err)
				}
				return
			}
			if !snap.Exists() {
				continue
			}

			thread, err := threadFromDoc(snap)
			if err != nil {
				logger.Warn("Skipping malformed thread document %s: %v", threadID, err)
				continue
			}

			select {
			case out <- thread:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

func (r *firestoreThreadRepository) WatchGroupsFor(ctx context.Context, userID string) (<-chan []*entity.Thread, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	snapIter := r.client.Collection(groupsCollection).
		Where("members", "array-contains", userID).Snapshots(ctx)

	out := make(chan []*entity.Thread, 1)
	go func() {
		defer close(out)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Group watch stream for user %s ended: %v", userID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read group snapshot for user %s: %v", userID, err)
				continue
			}

			var groups []*entity.Thread
			for _, doc := range docs {
				group, err := threadFromDoc(doc)
				if err != nil {
					logger.Warn("Skipping malformed group document %s: %v", doc.Ref.ID, err)
					continue
				}
				groups = append(groups, group)
			}

			select {
			case out <- groups:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}
