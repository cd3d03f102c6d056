package crud

import (
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

// ConversationService manages Conversations and Messages.
// It implements the domain.ConversationService interface.
type ConversationService struct {
	conversationValidator
}

// conversationValidator runs validations on incoming conversation data.
// On success, it passes the data on to conversationGorm.
// Otherwise, it returns the error of the validation that has failed.
type conversationValidator struct {
	conversationGorm
}

// conversationGorm runs CRUD operations on the database using incoming
// conversation data. It assumes that data has been validated.
type conversationGorm struct {
	db *gorm.DB
}

// NewConversationService returns an instance of ConversationService.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{
		conversationValidator{
			conversationGorm{
				db: db,
			},
		},
	}
}

// Ensure the ConversationService struct properly implements the
// domain.ConversationService interface. If it does not, then this
// expression becomes invalid and won't compile.
var _ domain.ConversationService = &ConversationService{}

// Create starts a conversation between the given participants. If a
// conversation with exactly that participant set already exists, it is
// returned instead of a duplicate.
func (cv *conversationValidator) Create(participants []*domain.User) (*domain.Conversation, error) {
	if len(participants) < 2 {
		return nil, errs.Errorf(errs.EINVALID, "A conversation needs at least two participants.")
	}
	seen := map[int]bool{}
	for _, p := range participants {
		if p == nil || p.ID <= 0 {
			return nil, errs.Errorf(errs.EINVALID, "Invalid participant.")
		}
		if seen[p.ID] {
			return nil, errs.Errorf(errs.EINVALID, "Duplicate participant.")
		}
		seen[p.ID] = true
	}
	return cv.conversationGorm.Create(participants)
}

// AddMessage appends a message authored by author to the conversation.
func (cv *conversationValidator) AddMessage(conversation *domain.Conversation, author *domain.User, text string) (*domain.Message, error) {
	if conversation == nil || conversation.ID <= 0 {
		return nil, errs.Errorf(errs.EINVALID, "Invalid conversation.")
	}
	if !domain.CanAccessConversation(author, conversation) {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errs.Errorf(errs.EINVALID, "A message must not be empty.")
	}
	return cv.conversationGorm.AddMessage(conversation, author, text)
}

// ByID retrieves a Conversation database record by ID along with its
// participants and its messages in creation order.
func (cg *conversationGorm) ByID(id int) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := cg.db.
		Preload("Users").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at asc, messages.id asc")
		}).
		Preload("Messages.User").
		First(&conversation, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The conversation does not exist.")
		}
		return nil, err
	}
	return &conversation, nil
}

// ForUser retrieves all conversations the user takes part in, newest
// activity first.
func (cg *conversationGorm) ForUser(user *domain.User) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := cg.db.
		Joins("JOIN conversation_users cu ON cu.conversation_id = conversations.id").
		Where("cu.user_id = ?", user.ID).
		Preload("Users").
		Order("conversations.updated_at desc").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// Create looks for an existing conversation with the identical
// participant set before inserting a new one.
func (cg *conversationGorm) Create(participants []*domain.User) (*domain.Conversation, error) {
	wanted := make([]int, len(participants))
	for i, p := range participants {
		wanted[i] = p.ID
	}
	sort.Ints(wanted)

	existing, err := cg.ForUser(participants[0])
	if err != nil {
		return nil, err
	}
	for i := range existing {
		ids := make([]int, len(existing[i].Users))
		for j, u := range existing[i].Users {
			ids[j] = u.ID
		}
		sort.Ints(ids)
		if equalIDs(wanted, ids) {
			return &existing[i], nil
		}
	}

	conversation := domain.Conversation{Users: participants}
	if err := cg.db.Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// AddMessage stores the message and touches the conversation so the
// inbox sorts by latest activity.
func (cg *conversationGorm) AddMessage(conversation *domain.Conversation, author *domain.User, text string) (*domain.Message, error) {
	message := domain.Message{
		ConversationID: conversation.ID,
		UserID:         author.ID,
		Text:           text,
	}
	err := cg.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(conversation).Update("updated_at", message.CreatedAt).Error
	})
	if err != nil {
		return nil, err
	}
	message.User = *author
	return &message, nil
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
