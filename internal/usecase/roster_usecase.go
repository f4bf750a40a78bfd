package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"sohbet/internal/domain/entity"
	"sohbet/internal/domain/repository"
	"sohbet/pkg/errors"
)

// RosterEntry is one sidebar row: a direct conversation with another
// user or a group the viewer belongs to.
type RosterEntry struct {
	Kind        entity.ThreadKind   `json:"kind"`
	ThreadID    string              `json:"thread_id"`
	Title       string              `json:"title"`
	PeerID      string              `json:"peer_id,omitempty"`
	IsOnline    bool                `json:"is_online,omitempty"`
	MemberCount int                 `json:"member_count,omitempty"`
	JoinCode    string              `json:"join_code,omitempty"`
	LastMessage *entity.LastMessage `json:"last_message,omitempty"`
	Read        bool                `json:"read"`
}

func entryKey(e *RosterEntry) string {
	return string(e.Kind) + ":" + e.ThreadID
}

// MergeRoster combines partition slices into one deduplicated list
// ordered by last activity, newest first. Entries that never had a
// message sink to the bottom; ties fall back to the title so the order
// is stable. Later partitions win on key collisions.
func MergeRoster(partitions ...[]*RosterEntry) []*RosterEntry {
	seen := make(map[string]int)
	var merged []*RosterEntry
	for _, partition := range partitions {
		for _, entry := range partition {
			key := entryKey(entry)
			if idx, ok := seen[key]; ok {
				merged[idx] = entry
				continue
			}
			seen[key] = len(merged)
			merged = append(merged, entry)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		li, lj := merged[i].LastMessage, merged[j].LastMessage
		switch {
		case li == nil && lj == nil:
			return strings.ToLower(merged[i].Title) < strings.ToLower(merged[j].Title)
		case li == nil:
			return false
		case lj == nil:
			return true
		case !li.Timestamp.Equal(lj.Timestamp):
			return li.Timestamp.After(lj.Timestamp)
		default:
			return strings.ToLower(merged[i].Title) < strings.ToLower(merged[j].Title)
		}
	})
	return merged
}

// FilterRoster keeps entries whose title contains the query, matched
// case-insensitively. An empty query returns the input unchanged.
func FilterRoster(entries []*RosterEntry, query string) []*RosterEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return entries
	}
	var filtered []*RosterEntry
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Title), query) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

type RosterUseCase struct {
	userRepo   repository.UserRepository
	threadRepo repository.ThreadRepository
	presence   PresenceStore
}

func NewRosterUseCase(userRepo repository.UserRepository, threadRepo repository.ThreadRepository, presence PresenceStore) *RosterUseCase {
	return &RosterUseCase{
		userRepo:   userRepo,
		threadRepo: threadRepo,
		presence:   presence,
	}
}

// Roster is a live sidebar feed. Updates carries a fresh merged
// snapshot whenever either source partition changes; Close tears down
// both subscriptions.
type Roster struct {
	Updates <-chan []*RosterEntry

	mu         sync.Mutex
	partitions map[string][]*RosterEntry
	out        chan []*RosterEntry
	cancels    []func()
	closed     bool
	closeOnce  sync.Once
}

func (r *Roster) setPartition(name string, entries []*RosterEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.partitions[name] = entries
	snapshot := MergeRoster(r.partitions["direct"], r.partitions["group"])

	// Latest snapshot wins; a slow consumer only ever sees the newest.
	select {
	case r.out <- snapshot:
	default:
		select {
		case <-r.out:
		default:
		}
		r.out <- snapshot
	}
}

func (r *Roster) Close() {
	r.closeOnce.Do(func() {
		for _, cancel := range r.cancels {
			cancel()
		}
		r.mu.Lock()
		r.closed = true
		close(r.out)
		r.mu.Unlock()
	})
}

// Open starts a live roster for the viewer. The first snapshot arrives
// once either the user listing or the group listing delivers.
func (uc *RosterUseCase) Open(ctx context.Context, selfID string) (*Roster, error) {
	users, cancelUsers, err := uc.userRepo.WatchOthers(ctx, selfID)
	if err != nil {
		return nil, err
	}
	groups, cancelGroups, err := uc.threadRepo.WatchGroupsFor(ctx, selfID)
	if err != nil {
		cancelUsers()
		return nil, err
	}

	out := make(chan []*RosterEntry, 1)
	roster := &Roster{
		Updates:    out,
		partitions: make(map[string][]*RosterEntry),
		out:        out,
		cancels:    []func(){cancelUsers, cancelGroups},
	}

	go func() {
		for snapshot := range users {
			roster.setPartition("direct", uc.directEntries(ctx, selfID, snapshot))
		}
	}()
	go func() {
		for snapshot := range groups {
			roster.setPartition("group", uc.groupEntries(selfID, snapshot))
		}
	}()

	return roster, nil
}

// Snapshot returns a one-shot merged roster without subscriptions.
func (uc *RosterUseCase) Snapshot(ctx context.Context, selfID string) ([]*RosterEntry, error) {
	users, err := uc.userRepo.ListOthers(ctx, selfID)
	if err != nil {
		return nil, err
	}
	groups, err := uc.threadRepo.ListGroupsFor(ctx, selfID)
	if err != nil {
		return nil, err
	}
	return MergeRoster(uc.directEntries(ctx, selfID, users), uc.groupEntries(selfID, groups)), nil
}

// directEntries builds the direct partition. The per-user thread lookup
// and the presence overlay are best effort: a failed lookup leaves the
// row without a last message rather than dropping it.
func (uc *RosterUseCase) directEntries(ctx context.Context, selfID string, users []*entity.User) []*RosterEntry {
	entries := make([]*RosterEntry, len(users))
	ids := make([]string, len(users))
	var wg sync.WaitGroup
	for i, user := range users {
		ids[i] = user.ID
		entry := &RosterEntry{
			Kind:     entity.ThreadKindDirect,
			ThreadID: entity.DirectThreadID(selfID, user.ID),
			Title:    user.Username,
			PeerID:   user.ID,
			IsOnline: user.IsOnline,
		}
		if entry.Title == "" {
			entry.Title = user.Email
		}
		entries[i] = entry

		wg.Add(1)
		go func(entry *RosterEntry) {
			defer wg.Done()
			thread, err := uc.threadRepo.Get(ctx, entity.ThreadKindDirect, entry.ThreadID)
			if err != nil {
				if !errors.Is(err, errors.CodeNotFound) {
					log.Printf("Last message lookup failed for thread %s: %v", entry.ThreadID, err)
				}
				return
			}
			entry.LastMessage = thread.LastMessage
			entry.Read = thread.LastMessage.ReadFor(selfID, entity.ThreadKindDirect, 2)
		}(entry)
	}
	wg.Wait()

	statuses, err := uc.presence.GetMultiple(ctx, ids)
	if err != nil {
		log.Printf("Presence overlay failed for roster: %v", err)
		return entries
	}
	for _, entry := range entries {
		if st, ok := statuses[entry.PeerID]; ok {
			entry.IsOnline = st.IsOnline
		}
	}
	return entries
}

func (uc *RosterUseCase) groupEntries(selfID string, groups []*entity.Thread) []*RosterEntry {
	entries := make([]*RosterEntry, 0, len(groups))
	for _, group := range groups {
		entries = append(entries, &RosterEntry{
			Kind:        entity.ThreadKindGroup,
			ThreadID:    group.ID,
			Title:       group.Name,
			MemberCount: len(group.Members),
			JoinCode:    group.JoinCode,
			LastMessage: group.LastMessage,
			Read:        group.LastMessage.ReadFor(selfID, entity.ThreadKindGroup, len(group.Members)),
		})
	}
	return entries
}
