package crud

import (
	"testing"
	"time"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

func TestCreateUserHashesPassword(t *testing.T) {
	s := testServices(t)
	user := createTestUser(t, s, "alice", false)

	if user.Password != "" {
		t.Error("plaintext password kept on the object after Create")
	}
	if user.PasswordHash == "" || user.PasswordHash == "password" {
		t.Errorf("password hash = %q, want a bcrypt hash", user.PasswordHash)
	}
	if user.ImageURL != domain.DefaultImageURL {
		t.Errorf("image url = %q, want the default image", user.ImageURL)
	}
}

func TestCreateUserConflicts(t *testing.T) {
	s := testServices(t)
	createTestUser(t, s, "alice", false)

	dup := &domain.User{Username: "alice", Email: "other@example.com", Password: "password"}
	if err := s.User.Create(dup); errs.ErrorCode(err) != errs.ECONFLICT {
		t.Errorf("duplicate username = %v, want ECONFLICT", err)
	}
	dup = &domain.User{Username: "other", Email: "alice@example.com", Password: "password"}
	if err := s.User.Create(dup); errs.ErrorCode(err) != errs.ECONFLICT {
		t.Errorf("duplicate email = %v, want ECONFLICT", err)
	}
	if n := countRows(t, s.db, &domain.User{}, ""); n != 1 {
		t.Errorf("got %d user rows after rejected signups, want 1", n)
	}
}

func TestCreateUserValidation(t *testing.T) {
	s := testServices(t)

	tests := []struct {
		name string
		user domain.User
	}{
		{"missing username", domain.User{Email: "a@example.com", Password: "password"}},
		{"missing email", domain.User{Username: "a", Password: "password"}},
		{"bad email", domain.User{Username: "a", Email: "not-an-email", Password: "password"}},
		{"short password", domain.User{Username: "a", Email: "a@example.com", Password: "abc"}},
		{"missing password", domain.User{Username: "a", Email: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			if err := s.User.Create(&user); errs.ErrorCode(err) != errs.EINVALID {
				t.Errorf("Create() = %v, want EINVALID", err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	s := testServices(t)
	createTestUser(t, s, "alice", false)

	user, err := s.User.Authenticate("alice", "password")
	if err != nil {
		t.Fatalf("Authenticate with correct credentials: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("authenticated user = %q, want alice", user.Username)
	}

	// Unknown user and wrong password produce the identical error, so the
	// login page cannot be used to probe for accounts.
	_, badPass := s.User.Authenticate("alice", "wrong-password")
	_, badUser := s.User.Authenticate("nobody", "password")
	if errs.ErrorCode(badPass) != errs.EINVALID || errs.ErrorCode(badUser) != errs.EINVALID {
		t.Fatalf("failure codes = %v / %v, want EINVALID for both", badPass, badUser)
	}
	if errs.ErrorMessage(badPass) != errs.ErrorMessage(badUser) {
		t.Errorf("failure messages differ: %q vs %q",
			errs.ErrorMessage(badPass), errs.ErrorMessage(badUser))
	}
}

func TestSetPrivate(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice", false)

	if err := s.User.SetPrivate(alice, true); err != nil {
		t.Fatalf("SetPrivate: %v", err)
	}
	stored, err := s.User.ByID(alice.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if !stored.Private {
		t.Error("private flag not persisted")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice", false)
	bob := createTestUser(t, s, "bob", false)
	carol := createTestUser(t, s, "carol", true)

	project := &domain.Project{UserID: alice.ID, Title: "Socks"}
	err := s.Project.Create(project, []string{"US 1"}, []string{"B-1"},
		[]domain.Yarn{{YarnName: "Merino"}})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	log := &domain.TimeLog{ProjectID: project.ID, Date: time.Now(), Hours: 1}
	if err := s.TimeLog.Create(log); err != nil {
		t.Fatalf("create time log: %v", err)
	}
	if err := s.Follow.Follow(alice, bob); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := s.Follow.Follow(bob, alice); err != nil {
		t.Fatalf("follow back: %v", err)
	}
	if err := s.Follow.Follow(alice, carol); err != nil {
		t.Fatalf("request: %v", err)
	}
	conv, err := s.Conversation.Create([]*domain.User{alice, bob})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := s.Conversation.AddMessage(conv, alice, "hi"); err != nil {
		t.Fatalf("add message: %v", err)
	}

	if err := s.User.Delete(alice); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.User.ByID(alice.ID); errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Errorf("deleted user lookup = %v, want ENOTFOUND", err)
	}
	checks := []struct {
		name  string
		model interface{}
	}{
		{"projects", &domain.Project{}},
		{"yarns", &domain.Yarn{}},
		{"time logs", &domain.TimeLog{}},
		{"follow edges", &domain.Follow{}},
		{"follow requests", &domain.FollowRequest{}},
		{"messages", &domain.Message{}},
	}
	for _, c := range checks {
		if n := countRows(t, s.db, c.model, ""); n != 0 {
			t.Errorf("%d %s survived the cascade, want 0", n, c.name)
		}
	}

	// The other accounts are untouched.
	if _, err := s.User.ByID(bob.ID); err != nil {
		t.Errorf("bob gone after alice's delete: %v", err)
	}
	if _, err := s.User.ByID(carol.ID); err != nil {
		t.Errorf("carol gone after alice's delete: %v", err)
	}
}

func TestByIDPreloadsProfileAssociations(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice", false)
	bob := createTestUser(t, s, "bob", false)

	project := &domain.Project{UserID: alice.ID, Title: "Hat"}
	err := s.Project.Create(project, nil, nil, []domain.Yarn{{YarnName: "Alpaca"}})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := s.Follow.Follow(bob, alice); err != nil {
		t.Fatalf("follow: %v", err)
	}

	stored, err := s.User.ByID(alice.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if len(stored.Projects) != 1 || len(stored.Projects[0].Yarns) != 1 {
		t.Errorf("projects not preloaded with yarns: %+v", stored.Projects)
	}
	if len(stored.Followers) != 1 || stored.Followers[0].Follower.Username != "bob" {
		t.Errorf("followers not preloaded: %+v", stored.Followers)
	}
	if !stored.IsFollowedBy(bob) {
		t.Error("IsFollowedBy(bob) = false on the preloaded user")
	}
}

func TestSearchUsers(t *testing.T) {
	s := testServices(t)
	createTestUser(t, s, "alice", false)
	createTestUser(t, s, "bob", false)
	createTestUser(t, s, "malice", false)

	users, err := s.User.Search("lice")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "malice" {
		t.Errorf("Search(lice) = %+v, want [alice malice]", users)
	}

	all, err := s.User.Search("")
	if err != nil {
		t.Fatalf("Search all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("empty term returned %d users, want 3", len(all))
	}
}
