package domain

import (
	"time"
)

// DefaultImageURL is used for users who sign up without a profile image.
const DefaultImageURL = "/static/images/default-profile.svg"

// User is a site user. A user owns their projects, follows other users,
// and takes part in conversations. The Private flag hides the user's
// profile and projects from everyone but confirmed followers.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username" gorm:"size:30;notNull;uniqueIndex"`
	Email        string `json:"email" gorm:"notNull;uniqueIndex"`
	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"notNull"`
	ImageURL     string `json:"image_url"`
	Private      bool   `json:"private" gorm:"notNull;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Projects []Project `json:"projects"`

	// Followers holds the follow rows where this user is the one being
	// followed, Followeds the rows where this user is the follower.
	Followers []Follow `json:"followers" gorm:"foreignKey:FollowedID"`
	Followeds []Follow `json:"followeds" gorm:"foreignKey:FollowerID"`

	// RequestsReceived are pending follow requests awaiting this user's
	// approval, RequestsMade the ones this user sent to private accounts.
	RequestsReceived []FollowRequest `json:"requests_received" gorm:"foreignKey:TargetID"`
	RequestsMade     []FollowRequest `json:"requests_made" gorm:"foreignKey:RequesterID"`

	Conversations []*Conversation `json:"conversations" gorm:"many2many:conversation_users"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	Search(term string) ([]User, error)
	Authenticate(username, password string) (*User, error)
	Create(user *User) error
	Update(user *User) error
	SetPrivate(user *User, private bool) error
	Delete(user *User) error
}
