package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sohbet/internal/domain/entity"
)

func ts(sec int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC)
}

func TestMergeRosterOrdersByLastActivity(t *testing.T) {
	older := &RosterEntry{Kind: entity.ThreadKindDirect, ThreadID: "a", Title: "Bob", LastMessage: &entity.LastMessage{Timestamp: ts(10)}}
	newer := &RosterEntry{Kind: entity.ThreadKindGroup, ThreadID: "g", Title: "Team", LastMessage: &entity.LastMessage{Timestamp: ts(30)}}
	silent := &RosterEntry{Kind: entity.ThreadKindDirect, ThreadID: "b", Title: "Carol"}

	merged := MergeRoster([]*RosterEntry{older, silent}, []*RosterEntry{newer})

	require.Len(t, merged, 3)
	assert.Equal(t, "Team", merged[0].Title)
	assert.Equal(t, "Bob", merged[1].Title)
	assert.Equal(t, "Carol", merged[2].Title)
}

func TestMergeRosterDeduplicatesByKey(t *testing.T) {
	stale := &RosterEntry{Kind: entity.ThreadKindGroup, ThreadID: "g", Title: "Team", LastMessage: &entity.LastMessage{Text: "old", Timestamp: ts(5)}}
	fresh := &RosterEntry{Kind: entity.ThreadKindGroup, ThreadID: "g", Title: "Team", LastMessage: &entity.LastMessage{Text: "new", Timestamp: ts(9)}}

	merged := MergeRoster([]*RosterEntry{stale}, []*RosterEntry{fresh})

	require.Len(t, merged, 1)
	assert.Equal(t, "new", merged[0].LastMessage.Text)
}

func TestMergeRosterSameIDDifferentKind(t *testing.T) {
	direct := &RosterEntry{Kind: entity.ThreadKindDirect, ThreadID: "x", Title: "Dm"}
	group := &RosterEntry{Kind: entity.ThreadKindGroup, ThreadID: "x", Title: "Grp"}

	merged := MergeRoster([]*RosterEntry{direct}, []*RosterEntry{group})
	assert.Len(t, merged, 2)
}

func TestMergeRosterSilentEntriesSortByTitle(t *testing.T) {
	merged := MergeRoster([]*RosterEntry{
		{Kind: entity.ThreadKindDirect, ThreadID: "1", Title: "zoe"},
		{Kind: entity.ThreadKindDirect, ThreadID: "2", Title: "Adam"},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "Adam", merged[0].Title)
}

func TestMergeRosterCommutesOverPartitionOrder(t *testing.T) {
	direct := []*RosterEntry{
		{Kind: entity.ThreadKindDirect, ThreadID: "a", Title: "Bob", LastMessage: &entity.LastMessage{Timestamp: ts(10)}},
		{Kind: entity.ThreadKindDirect, ThreadID: "b", Title: "Carol"},
	}
	groups := []*RosterEntry{
		{Kind: entity.ThreadKindGroup, ThreadID: "g", Title: "Team", LastMessage: &entity.LastMessage{Timestamp: ts(30)}},
	}

	assert.Equal(t, MergeRoster(direct, groups), MergeRoster(groups, direct))
}

func TestFilterRoster(t *testing.T) {
	entries := []*RosterEntry{
		{ThreadID: "1", Title: "Weekend Plans"},
		{ThreadID: "2", Title: "Bob"},
		{ThreadID: "3", Title: "bobby tables"},
	}

	assert.Len(t, FilterRoster(entries, "bob"), 2)
	assert.Len(t, FilterRoster(entries, "WEEKEND"), 1)
	assert.Len(t, FilterRoster(entries, ""), 3)
	assert.Empty(t, FilterRoster(entries, "nothing"))
}

func TestSnapshotMergesUsersAndGroups(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo(
		&entity.User{ID: "alice", Email: "alice@example.com", Username: "Alice"},
		&entity.User{ID: "bob", Email: "bob@example.com", Username: "Bob"},
	)
	threadRepo := newFakeThreadRepo()
	pres := newFakePresence("bob")

	group := &entity.Thread{Name: "team", Members: []string{"alice", "bob"}, CreatedBy: "alice"}
	require.NoError(t, threadRepo.CreateGroup(ctx, group))
	require.NoError(t, threadRepo.SetLastMessage(ctx, entity.ThreadKindGroup, group.ID, &entity.LastMessage{
		Text: "standup?", From: "bob", Timestamp: ts(20), ReadBy: []string{"bob"},
	}))

	directID := entity.DirectThreadID("alice", "bob")
	require.NoError(t, threadRepo.SetLastMessage(ctx, entity.ThreadKindDirect, directID, &entity.LastMessage{
		Text: "hi", From: "bob", Timestamp: ts(40), ReadBy: []string{"bob", "alice"},
	}))

	uc := NewRosterUseCase(userRepo, threadRepo, pres)
	entries, err := uc.Snapshot(ctx, "alice")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, entity.ThreadKindDirect, entries[0].Kind)
	assert.Equal(t, "Bob", entries[0].Title)
	assert.True(t, entries[0].IsOnline)
	assert.True(t, entries[0].Read)

	assert.Equal(t, entity.ThreadKindGroup, entries[1].Kind)
	assert.Equal(t, "team", entries[1].Title)
	assert.Equal(t, 2, entries[1].MemberCount)
	assert.False(t, entries[1].Read)
}

func TestSnapshotWithoutThreadsStillListsUsers(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo(
		&entity.User{ID: "alice", Username: "Alice"},
		&entity.User{ID: "bob", Username: "Bob"},
		&entity.User{ID: "carol", Username: "Carol"},
	)
	uc := NewRosterUseCase(userRepo, newFakeThreadRepo(), newFakePresence())

	entries, err := uc.Snapshot(ctx, "alice")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Nil(t, entry.LastMessage)
		assert.False(t, entry.Read)
	}
}

func TestOpenDeliversInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo(
		&entity.User{ID: "alice", Username: "Alice"},
		&entity.User{ID: "bob", Username: "Bob"},
	)
	uc := NewRosterUseCase(userRepo, newFakeThreadRepo(), newFakePresence())

	roster, err := uc.Open(ctx, "alice")
	require.NoError(t, err)
	defer roster.Close()

	// Either partition may land first; wait for the one carrying Bob.
	deadline := time.After(time.Second)
	for {
		select {
		case snapshot := <-roster.Updates:
			if len(snapshot) == 1 {
				assert.Equal(t, "Bob", snapshot[0].Title)
				return
			}
		case <-deadline:
			t.Fatal("no roster snapshot with the direct entry delivered")
		}
	}
}
