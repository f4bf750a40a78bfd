package entity

import "time"

type ThreadKind string

const (
	ThreadKindDirect ThreadKind = "direct"
	ThreadKindGroup  ThreadKind = "group"
)

// DirectThreadID derives the document id for a direct thread between two
// users. Both sides compute the same id without coordination: compare the
// ids lexicographically and concatenate the greater first. Equal inputs
// (self-chat) are not a supported case.
func DirectThreadID(uid1, uid2 string) string {
	if uid1 > uid2 {
		return uid1 + uid2
	}
	return uid2 + uid1
}

// Thread is the shared conversation document. Direct threads live in the
// "chats" collection keyed by DirectThreadID, which already encodes the
// member pair; group threads live in "groups" with a generated id and
// carry Name, Members, CreatedBy and JoinCode. The typing map and
// last-message summary are common to both.
type Thread struct {
	ID          string          `json:"id" firestore:"-"`
	Name        string          `json:"name,omitempty" firestore:"name,omitempty"`
	Members     []string        `json:"members,omitempty" firestore:"members,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty" firestore:"createdBy,omitempty"`
	JoinCode    string          `json:"join_code,omitempty" firestore:"joinCode,omitempty"`
	Typing      map[string]bool `json:"typing,omitempty" firestore:"typing,omitempty"`
	LastMessage *LastMessage    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	CreatedAt   time.Time       `json:"created_at" firestore:"createdAt"`
}

// LastMessage is the denormalized summary kept on the thread document so
// the sidebar never has to read the messages subcollection.
type LastMessage struct {
	Text      string    `json:"text" firestore:"text"`
	From      string    `json:"from" firestore:"from"`
	To        string    `json:"to,omitempty" firestore:"to,omitempty"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	ReadBy    []string  `json:"read_by" firestore:"readBy"`
}

// ReadFor reports whether the summary should render as "read" for the
// given viewer. For the viewer's own message the acknowledgement set must
// be complete (someone else in a direct thread, every current member in a
// group); for a received message it only needs to contain the viewer.
func (lm *LastMessage) ReadFor(viewerID string, kind ThreadKind, memberCount int) bool {
	if lm == nil || len(lm.ReadBy) == 0 {
		return false
	}

	if lm.From == viewerID {
		switch kind {
		case ThreadKindDirect:
			return len(lm.ReadBy) > 1
		case ThreadKindGroup:
			return len(lm.ReadBy) == memberCount
		}
		return false
	}

	for _, uid := range lm.ReadBy {
		if uid == viewerID {
			return true
		}
	}
	return false
}

// TypingOthers returns the ids of participants other than self whose
// typing flag is currently raised.
func (t *Thread) TypingOthers(selfID string) []string {
	var typing []string
	for uid, isTyping := range t.Typing {
		if uid != selfID && isTyping {
			typing = append(typing, uid)
		}
	}
	return typing
}
