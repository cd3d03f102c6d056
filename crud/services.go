package crud

import "gorm.io/gorm"

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It wraps the constructor of a crud service
// so the services can be created with functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud
// services. The crud services all share the database connection provided
// by Services.
type Services struct {
	db           *gorm.DB
	User         *UserService
	Follow       *FollowService
	Project      *ProjectService
	TimeLog      *TimeLogService
	Conversation *ConversationService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it
// creates.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db: db,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(pepper string) ServicesConfig {
	return func(s *Services) error {
		s.User = NewUserService(s.db, pepper)
		return nil
	}
}

// WithFollow wraps the constructor of FollowService, NewFollowService.
func WithFollow() ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db)
		return nil
	}
}

// WithProject wraps the constructor of ProjectService, NewProjectService.
func WithProject() ServicesConfig {
	return func(s *Services) error {
		s.Project = NewProjectService(s.db)
		return nil
	}
}

// WithTimeLog wraps the constructor of TimeLogService, NewTimeLogService.
func WithTimeLog() ServicesConfig {
	return func(s *Services) error {
		s.TimeLog = NewTimeLogService(s.db)
		return nil
	}
}

// WithConversation wraps the constructor of ConversationService,
// NewConversationService.
func WithConversation() ServicesConfig {
	return func(s *Services) error {
		s.Conversation = NewConversationService(s.db)
		return nil
	}
}
