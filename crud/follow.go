package crud

import (
	"gorm.io/gorm"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

// FollowService manages Follows and FollowRequests.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming follow
// data. It assumes that data has been validated.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the
// domain.FollowService interface. If it does not, then this expression
// becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Follow makes actor follow target. If target is a private account, a
// pending follow request is filed instead of an edge. Re-following or
// re-requesting an existing pair is a no-op.
func (fv *followValidator) Follow(actor, target *domain.User) error {
	if err := fv.pairValid(actor, target); err != nil {
		return err
	}
	if target.Private {
		return fv.followGorm.createRequest(target.ID, actor.ID)
	}
	return fv.followGorm.createEdge(target.ID, actor.ID)
}

// Unfollow removes the edge from actor to target. An absent edge is not
// an error.
func (fv *followValidator) Unfollow(actor, target *domain.User) error {
	if err := fv.pairValid(actor, target); err != nil {
		return err
	}
	return fv.followGorm.deleteEdge(target.ID, actor.ID)
}

// CancelRequest removes actor's pending request to follow target.
func (fv *followValidator) CancelRequest(actor, target *domain.User) error {
	if err := fv.pairValid(actor, target); err != nil {
		return err
	}
	return fv.followGorm.deleteRequest(target.ID, actor.ID)
}

// ConfirmRequest turns requester's pending request into a follow edge.
// Removing the request and inserting the edge happen as one unit; if
// either half fails, neither persists. Confirming a request that does
// not exist (e.g. confirming twice) is ENOTFOUND, never a duplicate edge.
func (fv *followValidator) ConfirmRequest(target, requester *domain.User) error {
	if err := fv.pairValid(requester, target); err != nil {
		return err
	}
	return fv.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("target_id = ? AND requester_id = ?", target.ID, requester.ID).
			Delete(&domain.FollowRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Errorf(errs.ENOTFOUND, "The follow request does not exist.")
		}
		follow := domain.Follow{FollowedID: target.ID, FollowerID: requester.ID}
		return tx.Create(&follow).Error
	})
}

// DenyRequest removes requester's pending request without creating an
// edge.
func (fv *followValidator) DenyRequest(target, requester *domain.User) error {
	if err := fv.pairValid(requester, target); err != nil {
		return err
	}
	res := fv.db.Where("target_id = ? AND requester_id = ?", target.ID, requester.ID).
		Delete(&domain.FollowRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.Errorf(errs.ENOTFOUND, "The follow request does not exist.")
	}
	return nil
}

// IsFollowing reports whether a follows b, by indexed lookup on the pair.
func (fv *followValidator) IsFollowing(a, b *domain.User) (bool, error) {
	return fv.followGorm.edgeExists(b.ID, a.ID)
}

// IsFollowedBy reports whether b follows a, by indexed lookup on the pair.
func (fv *followValidator) IsFollowedBy(a, b *domain.User) (bool, error) {
	return fv.followGorm.edgeExists(a.ID, b.ID)
}

// HasRequested reports whether a has a pending request to follow b.
func (fv *followValidator) HasRequested(a, b *domain.User) (bool, error) {
	var count int64
	err := fv.db.Model(&domain.FollowRequest{}).
		Where("target_id = ? AND requester_id = ?", b.ID, a.ID).
		Count(&count).Error
	return count > 0, err
}

// pairValid makes sure both users exist and are distinct. Following
// yourself is rejected.
func (fv *followValidator) pairValid(follower, followed *domain.User) error {
	if follower == nil || followed == nil || follower.ID <= 0 || followed.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid user.")
	}
	if follower.ID == followed.ID {
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	return nil
}

// createEdge inserts the follow edge if the pair is not present yet.
func (fg *followGorm) createEdge(followedID, followerID int) error {
	exists, err := fg.edgeExists(followedID, followerID)
	if err != nil || exists {
		return err
	}
	follow := domain.Follow{FollowedID: followedID, FollowerID: followerID}
	return fg.db.Create(&follow).Error
}

// createRequest inserts the pending request if the pair has neither a
// pending request nor an existing edge.
func (fg *followGorm) createRequest(targetID, requesterID int) error {
	exists, err := fg.edgeExists(targetID, requesterID)
	if err != nil || exists {
		return err
	}
	var count int64
	err = fg.db.Model(&domain.FollowRequest{}).
		Where("target_id = ? AND requester_id = ?", targetID, requesterID).
		Count(&count).Error
	if err != nil || count > 0 {
		return err
	}
	request := domain.FollowRequest{TargetID: targetID, RequesterID: requesterID}
	return fg.db.Create(&request).Error
}

// deleteEdge removes the follow edge for the pair, if present.
func (fg *followGorm) deleteEdge(followedID, followerID int) error {
	return fg.db.Where("followed_id = ? AND follower_id = ?", followedID, followerID).
		Delete(&domain.Follow{}).Error
}

// deleteRequest removes the pending request for the pair, if present.
func (fg *followGorm) deleteRequest(targetID, requesterID int) error {
	return fg.db.Where("target_id = ? AND requester_id = ?", targetID, requesterID).
		Delete(&domain.FollowRequest{}).Error
}

// edgeExists checks the pair against the composite index.
func (fg *followGorm) edgeExists(followedID, followerID int) (bool, error) {
	var count int64
	err := fg.db.Model(&domain.Follow{}).
		Where("followed_id = ? AND follower_id = ?", followedID, followerID).
		Count(&count).Error
	return count > 0, err
}
