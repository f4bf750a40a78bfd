package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFullyReadDirect(t *testing.T) {
	msg := &Message{Sender: "alice", ReadBy: []string{"alice"}}
	assert.False(t, msg.FullyRead(ThreadKindDirect, 2))

	msg.ReadBy = append(msg.ReadBy, "bob")
	assert.True(t, msg.FullyRead(ThreadKindDirect, 2))
}

func TestMessageFullyReadGroupTracksMemberCount(t *testing.T) {
	msg := &Message{Sender: "alice", ReadBy: []string{"alice", "bob"}}

	assert.False(t, msg.FullyRead(ThreadKindGroup, 3))
	// The same acknowledgement set is complete once the group shrinks.
	assert.True(t, msg.FullyRead(ThreadKindGroup, 2))
}

func TestMessageReadBySelf(t *testing.T) {
	msg := &Message{ReadBy: []string{"alice"}}
	assert.True(t, msg.ReadBySelf("alice"))
	assert.False(t, msg.ReadBySelf("bob"))
}

func TestMessageReactedBy(t *testing.T) {
	msg := &Message{Reactions: map[string][]string{"👍": {"bob"}}}
	assert.True(t, msg.ReactedBy("👍", "bob"))
	assert.False(t, msg.ReactedBy("👍", "alice"))
	assert.False(t, msg.ReactedBy("❤️", "bob"))
}

func TestMessageReactedByNilMap(t *testing.T) {
	msg := &Message{}
	assert.False(t, msg.ReactedBy("👍", "bob"))
}

func TestValidReaction(t *testing.T) {
	for _, emoji := range ReactionEmojis {
		assert.True(t, ValidReaction(emoji))
	}
	assert.False(t, ValidReaction("🎉"))
	assert.False(t, ValidReaction(""))
}
