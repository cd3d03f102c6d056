package domain

import "time"

// Conversation groups messages between a set of participants. Only
// participants may read it or post to it.
type Conversation struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Users    []*User   `json:"users" gorm:"many2many:conversation_users"`
	Messages []Message `json:"messages"`
}

// Message is one message in a conversation.
type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id" gorm:"notNull;index"`
	UserID         int       `json:"user_id" gorm:"notNull;index"`
	User           User      `json:"user"`
	Text           string    `json:"text" gorm:"notNull"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationService is a set of methods to manipulate and work with the
// Conversation and Message models.
type ConversationService interface {
	ByID(id int) (*Conversation, error)
	ForUser(user *User) ([]Conversation, error)
	// Create starts a conversation between the given participants, or
	// returns the existing one with exactly that participant set.
	Create(participants []*User) (*Conversation, error)
	AddMessage(conversation *Conversation, author *User, text string) (*Message, error)
}
