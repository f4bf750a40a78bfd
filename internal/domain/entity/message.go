package entity

import "time"

// ReactionEmojis is the fixed set of reaction symbols a message accepts.
var ReactionEmojis = []string{"👍", "❤️", "😂", "😮", "😢", "😡"}

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindFile  MediaKind = "file"
)

type Message struct {
	ID         string              `json:"id" firestore:"-"`
	Text       string              `json:"text,omitempty" firestore:"text,omitempty"`
	MediaURL   string              `json:"media_url,omitempty" firestore:"mediaURL,omitempty"`
	MediaType  MediaKind           `json:"media_type,omitempty" firestore:"mediaType,omitempty"`
	Sender     string              `json:"sender" firestore:"sender"`
	SenderName string              `json:"sender_name" firestore:"senderName"`
	Receiver   string              `json:"receiver,omitempty" firestore:"receiver,omitempty"`
	Timestamp  time.Time           `json:"timestamp" firestore:"timestamp"`
	ReadBy     []string            `json:"read_by" firestore:"readBy"`
	Reactions  map[string][]string `json:"reactions" firestore:"reactions"`
}

// FullyRead reports whether a message the viewer sent has been seen by
// everyone it was addressed to. In a direct thread that means anyone
// besides the sender acknowledged it; in a group it means the
// acknowledgement set matches the thread's current member count, so the
// answer can change retroactively when membership shrinks.
func (m *Message) FullyRead(kind ThreadKind, memberCount int) bool {
	switch kind {
	case ThreadKindDirect:
		return len(m.ReadBy) > 1
	case ThreadKindGroup:
		return len(m.ReadBy) == memberCount
	}
	return false
}

// ReadBySelf reports whether the viewer has already acknowledged the message.
func (m *Message) ReadBySelf(viewerID string) bool {
	for _, uid := range m.ReadBy {
		if uid == viewerID {
			return true
		}
	}
	return false
}

// ReactedBy reports whether the user is in the reactor set for the emoji.
func (m *Message) ReactedBy(emoji, userID string) bool {
	for _, uid := range m.Reactions[emoji] {
		if uid == userID {
			return true
		}
	}
	return false
}

// ValidReaction reports whether the emoji belongs to the fixed reaction set.
func ValidReaction(emoji string) bool {
	for _, e := range ReactionEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}
