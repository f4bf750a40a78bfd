package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"sohbet/internal/domain/entity"
	"sohbet/internal/infrastructure/presence"
	"sohbet/pkg/errors"
)

func key(kind entity.ThreadKind, threadID string) string {
	return string(kind) + ":" + threadID
}

type fakeThreadRepo struct {
	mu       sync.Mutex
	threads  map[string]*entity.Thread
	messages map[string][]*entity.Message
	nextID   int
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		threads:  make(map[string]*entity.Thread),
		messages: make(map[string][]*entity.Message),
	}
}

func (f *fakeThreadRepo) Get(ctx context.Context, kind entity.ThreadKind, threadID string) (*entity.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.threads[key(kind, threadID)]
	if !ok {
		return nil, errors.NotFound("Thread not found", nil)
	}
	copied := *thread
	return &copied, nil
}

func (f *fakeThreadRepo) CreateGroup(ctx context.Context, group *entity.Thread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	group.ID = fmt.Sprintf("group-%d", f.nextID)
	copied := *group
	f.threads[key(entity.ThreadKindGroup, group.ID)] = &copied
	return nil
}

func (f *fakeThreadRepo) GetGroupByJoinCode(ctx context.Context, code string) (*entity.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, thread := range f.threads {
		if thread.JoinCode == code {
			copied := *thread
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Group not found", nil)
}

func (f *fakeThreadRepo) AddMember(ctx context.Context, groupID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.threads[key(entity.ThreadKindGroup, groupID)]
	if !ok {
		return errors.NotFound("Group not found", nil)
	}
	for _, m := range thread.Members {
		if m == userID {
			return nil
		}
	}
	thread.Members = append(thread.Members, userID)
	return nil
}

func (f *fakeThreadRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.threads[key(entity.ThreadKindGroup, groupID)]
	if !ok {
		return errors.NotFound("Group not found", nil)
	}
	var members []string
	for _, m := range thread.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	thread.Members = members
	return nil
}

func (f *fakeThreadRepo) ListGroupsFor(ctx context.Context, userID string) ([]*entity.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var groups []*entity.Thread
	for _, thread := range f.threads {
		for _, m := range thread.Members {
			if m == userID {
				copied := *thread
				groups = append(groups, &copied)
				break
			}
		}
	}
	return groups, nil
}

func (f *fakeThreadRepo) SetTyping(ctx context.Context, kind entity.ThreadKind, threadID, userID string, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.threads[key(kind, threadID)]
	if !ok {
		thread = &entity.Thread{ID: threadID}
		f.threads[key(kind, threadID)] = thread
	}
	if thread.Typing == nil {
		thread.Typing = make(map[string]bool)
	}
	thread.Typing[userID] = typing
	return nil
}

func (f *fakeThreadRepo) SetLastMessage(ctx context.Context, kind entity.ThreadKind, threadID string, lm *entity.LastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.threads[key(kind, threadID)]
	if !ok {
		thread = &entity.Thread{ID: threadID}
		f.threads[key(kind, threadID)] = thread
	}
	thread.LastMessage = lm
	return nil
}

func (f *fakeThreadRepo) CreateMessage(ctx context.Context, kind entity.ThreadKind, threadID string, msg *entity.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	copied := *msg
	f.messages[key(kind, threadID)] = append(f.messages[key(kind, threadID)], &copied)
	return msg.ID, nil
}

func (f *fakeThreadRepo) findMessage(kind entity.ThreadKind, threadID, messageID string) *entity.Message {
	for _, msg := range f.messages[key(kind, threadID)] {
		if msg.ID == messageID {
			return msg
		}
	}
	return nil
}

func (f *fakeThreadRepo) GetMessage(ctx context.Context, kind entity.ThreadKind, threadID, messageID string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.findMessage(kind, threadID, messageID)
	if msg == nil {
		return nil, errors.NotFound("Message not found", nil)
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeThreadRepo) ListMessages(ctx context.Context, kind entity.ThreadKind, threadID string) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, msg := range f.messages[key(kind, threadID)] {
		copied := *msg
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeThreadRepo) MarkMessageRead(ctx context.Context, kind entity.ThreadKind, threadID, messageID, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.findMessage(kind, threadID, messageID)
	if msg == nil {
		return errors.NotFound("Message not found", nil)
	}
	for _, uid := range msg.ReadBy {
		if uid == readerID {
			return nil
		}
	}
	msg.ReadBy = append(msg.ReadBy, readerID)

	thread := f.threads[key(kind, threadID)]
	if thread != nil && thread.LastMessage != nil && thread.LastMessage.Timestamp.Equal(msg.Timestamp) {
		for _, uid := range thread.LastMessage.ReadBy {
			if uid == readerID {
				return nil
			}
		}
		thread.LastMessage.ReadBy = append(thread.LastMessage.ReadBy, readerID)
	}
	return nil
}

func (f *fakeThreadRepo) AddReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.findMessage(kind, threadID, messageID)
	if msg == nil {
		return errors.NotFound("Message not found", nil)
	}
	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}
	for _, uid := range msg.Reactions[emoji] {
		if uid == userID {
			return nil
		}
	}
	msg.Reactions[emoji] = append(msg.Reactions[emoji], userID)
	return nil
}

func (f *fakeThreadRepo) RemoveReaction(ctx context.Context, kind entity.ThreadKind, threadID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.findMessage(kind, threadID, messageID)
	if msg == nil {
		return errors.NotFound("Message not found", nil)
	}
	var kept []string
	for _, uid := range msg.Reactions[emoji] {
		if uid != userID {
			kept = append(kept, uid)
		}
	}
	msg.Reactions[emoji] = kept
	return nil
}

func (f *fakeThreadRepo) WatchMessages(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan []*entity.Message, func(), error) {
	ch := make(chan []*entity.Message)
	close(ch)
	return ch, func() {}, nil
}

func (f *fakeThreadRepo) WatchThread(ctx context.Context, kind entity.ThreadKind, threadID string) (<-chan *entity.Thread, func(), error) {
	ch := make(chan *entity.Thread)
	close(ch)
	return ch, func() {}, nil
}

func (f *fakeThreadRepo) WatchGroupsFor(ctx context.Context, userID string) (<-chan []*entity.Thread, func(), error) {
	groups, _ := f.ListGroupsFor(ctx, userID)
	ch := make(chan []*entity.Thread, 1)
	ch <- groups
	close(ch)
	return ch, func() {}, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		copied := *u
		repo.users[u.ID] = &copied
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.NotFound("User not found", nil)
}

func (f *fakeUserRepo) UpsertProfile(ctx context.Context, user *entity.User) error {
	return f.Create(ctx, user)
}

func (f *fakeUserRepo) SetOnline(ctx context.Context, id string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.IsOnline = online
	}
	return nil
}

func (f *fakeUserRepo) ListOthers(ctx context.Context, selfID string) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.User
	for _, user := range f.users {
		if user.ID == selfID {
			continue
		}
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeUserRepo) WatchOthers(ctx context.Context, selfID string) (<-chan []*entity.User, func(), error) {
	users, _ := f.ListOthers(ctx, selfID)
	ch := make(chan []*entity.User, 1)
	ch <- users
	close(ch)
	return ch, func() {}, nil
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakePresence(online ...string) *fakePresence {
	p := &fakePresence{online: make(map[string]bool)}
	for _, uid := range online {
		p.online[uid] = true
	}
	return p
}

func (p *fakePresence) Connect(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	return nil
}

func (p *fakePresence) Disconnect(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
	return nil
}

func (p *fakePresence) Heartbeat(ctx context.Context, userID string) error {
	return nil
}

func (p *fakePresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID], nil
}

func (p *fakePresence) GetMultiple(ctx context.Context, userIDs []string) (map[string]*presence.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]*presence.Status)
	for _, uid := range userIDs {
		out[uid] = &presence.Status{UserID: uid, IsOnline: p.online[uid]}
	}
	return out, nil
}

type fakeStorage struct{}

func (fakeStorage) UploadMedia(ctx context.Context, file io.Reader, contentType, collection, threadID string) (string, error) {
	return "https://storage.googleapis.com/test-bucket/" + collection + "/" + threadID + "/object", nil
}
