package domain

// Authorization predicates. Every detail-view or mutating handler calls
// the matching predicate before touching storage. A failed check is a
// distinct "unauthorized" outcome, never downgraded to not-found or
// success.

// CanViewUser reports whether actor may see target's profile and
// projects. Private accounts are visible only to themselves and to their
// confirmed followers. Target must be loaded with its Followers.
func CanViewUser(actor, target *User) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.ID == target.ID {
		return true
	}
	if !target.Private {
		return true
	}
	return target.IsFollowedBy(actor)
}

// CanMutateProject reports whether actor may edit, delete or pin the
// project. Only the owner may.
func CanMutateProject(actor *User, project *Project) bool {
	return actor != nil && project != nil && actor.ID == project.UserID
}

// CanMutateTimeLog reports whether actor may edit the time log. It
// delegates to the ownership check on the log's parent project.
func CanMutateTimeLog(actor *User, log *TimeLog, project *Project) bool {
	return log != nil && project != nil && log.ProjectID == project.ID &&
		CanMutateProject(actor, project)
}

// CanAccessConversation reports whether actor is one of the
// conversation's participants.
func CanAccessConversation(actor *User, conversation *Conversation) bool {
	if actor == nil || conversation == nil {
		return false
	}
	for _, u := range conversation.Users {
		if u.ID == actor.ID {
			return true
		}
	}
	return false
}

// IsFollowedBy reports whether other is in the user's follower set. It
// scans the preloaded Followers slice, which is fine at the scale of a
// rendered profile page.
func (u *User) IsFollowedBy(other *User) bool {
	if other == nil {
		return false
	}
	for _, f := range u.Followers {
		if f.FollowerID == other.ID {
			return true
		}
	}
	return false
}

// IsFollowing reports whether the user follows other, scanning the
// preloaded Followeds slice.
func (u *User) IsFollowing(other *User) bool {
	if other == nil {
		return false
	}
	for _, f := range u.Followeds {
		if f.FollowedID == other.ID {
			return true
		}
	}
	return false
}

// HasRequested reports whether the user has a pending follow request to
// other, scanning the preloaded RequestsMade slice.
func (u *User) HasRequested(other *User) bool {
	if other == nil {
		return false
	}
	for _, r := range u.RequestsMade {
		if r.TargetID == other.ID {
			return true
		}
	}
	return false
}
