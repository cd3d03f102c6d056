package crud

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

// UserService manages Users. It also contains the password handling of
// the authentication system. It implements the domain.UserService
// interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	pepper     string
	emailRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper string) *UserService {
	return &UserService{
		userValidator{
			pepper:     pepper,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService
// interface. If it does not, then this expression becomes invalid and
// won't compile.
var _ domain.UserService = &UserService{}

// Authenticate checks a submitted username and password for existence and
// correctness. Both failure modes return the same error so the login page
// never reveals which half was wrong.
func (uv *userValidator) Authenticate(username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(username)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, errs.Errorf(errs.EINVALID, "Invalid credentials.")
		}
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, errs.Errorf(errs.EINVALID, "Invalid credentials.")
		}
		return nil, err
	}
	return found, nil
}

// Create runs validations needed for creating new User database records.
func (uv *userValidator) Create(user *domain.User) error {
	err := runUserValFns(user,
		uv.usernameRequired,
		uv.usernameNormalize,
		uv.usernameMaxLength,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.imageSetIfUnset,
		uv.usernameAndEmailAvail)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(user)
}

// Update runs validations needed for updating a User record in the
// database. The password is only re-validated if a new one is provided.
func (uv *userValidator) Update(user *domain.User) error {
	err := runUserValFns(user,
		uv.usernameRequired,
		uv.usernameNormalize,
		uv.usernameMaxLength,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.imageSetIfUnset,
		uv.usernameAndEmailAvail)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(user)
}

// SetPrivate flips the account's private flag.
func (uv *userValidator) SetPrivate(user *domain.User, private bool) error {
	if user.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid user.")
	}
	user.Private = private
	return uv.userGorm.SetPrivate(user, private)
}

// Delete removes the user and everything they own.
func (uv *userValidator) Delete(user *domain.User) error {
	if user.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid user.")
	}
	return uv.userGorm.Delete(user)
}

// runUserValFns runs any number of functions of type userValFn on the
// passed in User object. If none of them returns an error, it returns
// nil. Otherwise, it returns the respective error.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User
// object and returns an error.
type userValFn func(user *domain.User) error

// usernameRequired makes sure that the username is not the empty string.
func (uv *userValidator) usernameRequired(user *domain.User) error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "A username is required.")
	}
	return nil
}

// usernameNormalize trims surrounding whitespace off the username.
func (uv *userValidator) usernameNormalize(user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	return nil
}

// usernameMaxLength makes sure the username fits the 30 character column.
func (uv *userValidator) usernameMaxLength(user *domain.User) error {
	if utf8.RuneCountInString(user.Username) > 30 {
		return errs.Errorf(errs.EINVALID, "The username must have at most 30 characters.")
	}
	return nil
}

// usernameAndEmailAvail makes sure neither the username nor the email is
// taken by another account. Both collapse into the one conflict message
// the signup page shows.
func (uv *userValidator) usernameAndEmailAvail(user *domain.User) error {
	var existing domain.User
	err := uv.db.Where("username = ? OR email = ?", user.Username, user.Email).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != user.ID {
		return errs.Errorf(errs.ECONFLICT, "Username or email already in use.")
	}
	return nil
}

// emailFormat makes sure that a provided email address matches a
// predefined regex pattern.
func (uv *userValidator) emailFormat(user *domain.User) error {
	if user.Email == "" {
		return nil
	}
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its
// whitespaces.
func (uv *userValidator) emailNormalize(user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	user.Email = strings.TrimSpace(user.Email)
	return nil
}

// emailRequired makes sure that the email is not the empty string.
func (uv *userValidator) emailRequired(user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "An email address is required.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the password on the user object in memory.
func (uv *userValidator) passwordBcrypt(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// passwordHashRequired makes sure that the user's password hash is not
// the empty string.
func (uv *userValidator) passwordHashRequired(user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordMinLength makes sure that the user's password is at least 6
// characters long.
func (uv *userValidator) passwordMinLength(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	if utf8.RuneCountInString(user.Password) < 6 {
		return errs.Errorf(errs.EINVALID, "The password must have at least 6 characters.")
	}
	return nil
}

// passwordRequired makes sure that the user's password is not the empty
// string.
func (uv *userValidator) passwordRequired(user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// imageSetIfUnset falls back to the default profile image.
func (uv *userValidator) imageSetIfUnset(user *domain.User) error {
	if user.ImageURL == "" {
		user.ImageURL = domain.DefaultImageURL
	}
	return nil
}

// ByID retrieves a User database record by ID, along with the
// associations a profile page needs: projects with their nested
// collections, followers, followeds, and pending requests both ways.
func (ug *userGorm) ByID(id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.
		Preload("Projects.Yarns").
		Preload("Projects.Needles").
		Preload("Projects.Hooks").
		Preload("Projects.TimeLogs").
		Preload("Followers.Follower").
		Preload("Followeds.Followed").
		Preload("RequestsReceived.Requester").
		Preload("RequestsMade.Target").
		First(&user, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by username.
func (ug *userGorm) ByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// Search retrieves users whose username contains the term, or all users
// for an empty term.
func (ug *userGorm) Search(term string) ([]domain.User, error) {
	var users []domain.User
	db := ug.db.Order("username asc")
	if term != "" {
		db = db.Where("username LIKE ?", "%"+term+"%")
	}
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create stores the data from the User object in a new database record.
func (ug *userGorm) Create(user *domain.User) error {
	return ug.db.Create(user).Error
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(user *domain.User) error {
	return ug.db.Save(user).Error
}

// SetPrivate persists the private flag.
func (ug *userGorm) SetPrivate(user *domain.User, private bool) error {
	return ug.db.Model(user).Update("private", private).Error
}

// Delete removes the user record and cascades to everything the account
// touches: owned projects with their yarns, time logs and needle/hook
// join rows, follow edges and pending requests in both directions,
// conversation participation, and authored messages. All of it happens
// in one transaction.
func (ug *userGorm) Delete(user *domain.User) error {
	return ug.db.Transaction(func(tx *gorm.DB) error {
		var projects []domain.Project
		if err := tx.Where("user_id = ?", user.ID).Find(&projects).Error; err != nil {
			return err
		}
		for i := range projects {
			if err := deleteProjectTx(tx, &projects[i]); err != nil {
				return err
			}
		}
		if err := tx.Where("followed_id = ? OR follower_id = ?", user.ID, user.ID).
			Delete(&domain.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_id = ? OR requester_id = ?", user.ID, user.ID).
			Delete(&domain.FollowRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Model(user).Association("Conversations").Clear(); err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, user.ID).Error
	})
}
