package models

import (
	"time"
)

// Participant identifies one side of a conversation.
type Participant struct {
	ID   string   `bson:"id" json:"id"`
	Name string   `bson:"name" json:"name"`
	Role UserRole `bson:"role" json:"role"`
}

// ChatMessage is a single message in a conversation. Messages are append-only.
type ChatMessage struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	SenderName string    `bson:"sender_name" json:"senderName"`
	Content    string    `bson:"content" json:"content"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatConversation is a 1:1 thread between exactly two distinct participants,
// optionally scoped to a listing. At most one conversation exists per
// (participant pair, listing) combination.
type ChatConversation struct {
	ID              string        `bson:"_id" json:"id"`
	Participants    []Participant `bson:"participants" json:"participants"`
	ListingID       string        `bson:"listing_id,omitempty" json:"listingId,omitempty"`
	ListingName     string        `bson:"listing_name,omitempty" json:"listingName,omitempty"`
	Messages        []ChatMessage `bson:"messages" json:"messages"`
	LastMessage     string        `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	LastMessageTime time.Time     `bson:"last_message_time,omitempty" json:"lastMessageTime,omitempty"`
	Unread          int           `bson:"unread" json:"unread"`
}

// HasParticipant reports whether the given user is one of the two participants.
func (c *ChatConversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
