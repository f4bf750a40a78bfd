package usecase

import (
	"context"
	"crypto/rand"
	"log"
	"time"

	"sohbet/internal/domain/entity"
	"sohbet/internal/domain/repository"
	"sohbet/pkg/errors"
)

const (
	joinCodeLength   = 6
	joinCodeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeAttempts = 5
)

type GroupUseCase struct {
	threadRepo repository.ThreadRepository
}

func NewGroupUseCase(threadRepo repository.ThreadRepository) *GroupUseCase {
	return &GroupUseCase{threadRepo: threadRepo}
}

type CreateGroupInput struct {
	Name    string   `json:"name" validate:"required,min=1,max=64"`
	Members []string `json:"members" validate:"required,min=1"`
}

// generateJoinCode returns a fresh 6 character code that no existing
// group holds. Collisions are unlikely at this scale but cheap to rule
// out; after a few failed draws we give up rather than loop.
func (uc *GroupUseCase) generateJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		buf := make([]byte, joinCodeLength)
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Internal("Failed to generate join code", err)
		}
		for i, b := range buf {
			buf[i] = joinCodeCharset[int(b)%len(joinCodeCharset)]
		}
		code := string(buf)

		_, err := uc.threadRepo.GetGroupByJoinCode(ctx, code)
		if errors.Is(err, errors.CodeNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		log.Printf("Join code collision on %s, retrying", code)
	}
	return "", errors.Internal("Could not generate a unique join code", nil)
}

// CreateGroup starts a group with the creator plus the selected members.
// A group of one is not a group: besides the creator at least one other
// member is required.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, creatorID string, input CreateGroupInput) (*entity.Thread, error) {
	members := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, m := range input.Members {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		members = append(members, m)
	}
	if len(members) < 2 {
		return nil, errors.BadRequest("Select at least one other member", nil)
	}

	code, err := uc.generateJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	group := &entity.Thread{
		Name:      input.Name,
		Members:   members,
		CreatedBy: creatorID,
		JoinCode:  code,
		CreatedAt: time.Now(),
	}
	if err := uc.threadRepo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	log.Printf("User %s created group %s (%s)", creatorID, group.ID, group.Name)
	return group, nil
}

type JoinGroupInput struct {
	Code string `json:"code" validate:"required,len=6"`
}

// JoinByCode adds the caller to the group matching the code. Joining a
// group you already belong to is a no-op.
func (uc *GroupUseCase) JoinByCode(ctx context.Context, userID string, input JoinGroupInput) (*entity.Thread, error) {
	group, err := uc.threadRepo.GetGroupByJoinCode(ctx, normalizeJoinCode(input.Code))
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.NotFound("No group matches that code", nil)
		}
		return nil, err
	}

	if err := uc.threadRepo.AddMember(ctx, group.ID, userID); err != nil {
		return nil, err
	}

	log.Printf("User %s joined group %s via code", userID, group.ID)
	return uc.threadRepo.Get(ctx, entity.ThreadKindGroup, group.ID)
}

// LeaveGroup removes the caller from the member list. Messages they
// sent stay behind; read completeness for remaining members is
// computed against the shrunken member count from here on.
func (uc *GroupUseCase) LeaveGroup(ctx context.Context, groupID, userID string) error {
	group, err := uc.threadRepo.Get(ctx, entity.ThreadKindGroup, groupID)
	if err != nil {
		return err
	}

	member := false
	for _, m := range group.Members {
		if m == userID {
			member = true
			break
		}
	}
	if !member {
		return errors.Forbidden("You are not a member of this group", nil)
	}

	if err := uc.threadRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	log.Printf("User %s left group %s", userID, groupID)
	return nil
}

func (uc *GroupUseCase) GetGroup(ctx context.Context, groupID string) (*entity.Thread, error) {
	return uc.threadRepo.Get(ctx, entity.ThreadKindGroup, groupID)
}

func (uc *GroupUseCase) ListGroupsFor(ctx context.Context, userID string) ([]*entity.Thread, error) {
	return uc.threadRepo.ListGroupsFor(ctx, userID)
}

func normalizeJoinCode(code string) string {
	out := make([]byte, 0, len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
