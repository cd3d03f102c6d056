package domain

import "time"

// Follow represents a self-referential many-to-many relationship between
// two users. The FollowerID is the ID of the user that follows, and the
// FollowedID is the ID of the user being followed. Each (followed,
// follower) pair exists at most once.
type Follow struct {
	ID         int       `json:"id"`
	FollowedID int       `json:"-" gorm:"notNull;index;uniqueIndex:idx_follow_pair"`
	Followed   User      `json:"followed"`
	FollowerID int       `json:"-" gorm:"notNull;index;uniqueIndex:idx_follow_pair"`
	Follower   User      `json:"follower"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FollowRequest is a pending follow of a private account, awaiting the
// target's approval. It is resolved by deletion: confirming replaces it
// with a Follow edge, denying just deletes it. A request and an edge for
// the same pair never coexist.
type FollowRequest struct {
	ID          int       `json:"id"`
	TargetID    int       `json:"-" gorm:"notNull;index;uniqueIndex:idx_request_pair"`
	Target      User      `json:"target"`
	RequesterID int       `json:"-" gorm:"notNull;index;uniqueIndex:idx_request_pair"`
	Requester   User      `json:"requester"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FollowService is a set of methods to manipulate and work with the
// Follow and FollowRequest models.
type FollowService interface {
	// Follow makes actor follow target, or files a pending request if
	// target is a private account. Both variants are idempotent.
	Follow(actor, target *User) error
	// Unfollow removes the edge if present. Absence is not an error.
	Unfollow(actor, target *User) error
	// CancelRequest removes actor's pending request to target.
	CancelRequest(actor, target *User) error
	// ConfirmRequest removes the pending request and inserts the follow
	// edge as one unit. A missing request is ENOTFOUND.
	ConfirmRequest(target, requester *User) error
	// DenyRequest removes the pending request only.
	DenyRequest(target, requester *User) error
	IsFollowing(a, b *User) (bool, error)
	IsFollowedBy(a, b *User) (bool, error)
	HasRequested(a, b *User) (bool, error)
}
