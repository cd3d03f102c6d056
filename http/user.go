package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	r.HandleFunc("/users", s.requireUser(s.handleUserList)).Methods("GET")
	r.HandleFunc("/users/delete", s.requireUser(s.handleUserDelete)).Methods("POST")
	r.HandleFunc("/users/{id:[0-9]+}", s.requireUser(s.handleUserPage)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/following", s.requireUser(s.handleFollowingPage)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/followers", s.requireUser(s.handleFollowersPage)).Methods("GET")
	r.HandleFunc("/profile", s.requireUser(s.handleOwnProfile)).Methods("GET")
	r.HandleFunc("/notifications", s.requireUser(s.handleNotifications)).Methods("GET")
	r.HandleFunc("/settings", s.requireUser(s.handleSettingsPage)).Methods("GET")
	r.HandleFunc("/settings", s.requireUser(s.handleSettingsSave)).Methods("POST")
	r.HandleFunc("/settings/private", s.requireUser(s.handleSetPrivate)).Methods("POST")
	r.HandleFunc("/settings/unprivate", s.requireUser(s.handleSetPublic)).Methods("POST")
}

type userListData struct {
	Users []domain.User
	Query string
}

// handleUserList handles the route "GET /users". An optional q parameter
// filters by username substring.
func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	users, err := s.us.Search(query)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.render(w, r, "users", http.StatusOK, userListData{Users: users, Query: query})
}

type profileData struct {
	Target       *domain.User
	IsSelf       bool
	IsFollowing  bool
	HasRequested bool
}

// handleUserPage handles the route "GET /users/{id}". Private accounts
// show the placeholder page to everyone but the owner and confirmed
// followers; the real data never leaves the server for them.
func (s *Server) handleUserPage(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	actor := currentUser(r)
	if !domain.CanViewUser(actor, target) {
		requested, err := s.fs.HasRequested(actor, target)
		if err != nil {
			s.Error(w, r, err)
			return
		}
		s.render(w, r, "private", http.StatusOK, profileData{
			Target:       target,
			HasRequested: requested,
		})
		return
	}
	s.render(w, r, "profile", http.StatusOK, profileData{
		Target:       target,
		IsSelf:       actor.ID == target.ID,
		IsFollowing:  target.IsFollowedBy(actor),
		HasRequested: actor.HasRequested(target),
	})
}

// handleOwnProfile handles the route "GET /profile".
func (s *Server) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/users/"+strconv.Itoa(currentUser(r).ID), http.StatusFound)
}

type followsData struct {
	Target *domain.User
	Users  []domain.User
	Title  string
}

// handleFollowingPage handles the route "GET /users/{id}/following".
func (s *Server) handleFollowingPage(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	if !domain.CanViewUser(currentUser(r), target) {
		s.render(w, r, "private", http.StatusOK, profileData{Target: target})
		return
	}
	users := make([]domain.User, 0, len(target.Followeds))
	for _, f := range target.Followeds {
		users = append(users, f.Followed)
	}
	s.render(w, r, "follows", http.StatusOK, followsData{
		Target: target,
		Users:  users,
		Title:  target.Username + " is following",
	})
}

// handleFollowersPage handles the route "GET /users/{id}/followers".
func (s *Server) handleFollowersPage(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	if !domain.CanViewUser(currentUser(r), target) {
		s.render(w, r, "private", http.StatusOK, profileData{Target: target})
		return
	}
	users := make([]domain.User, 0, len(target.Followers))
	for _, f := range target.Followers {
		users = append(users, f.Follower)
	}
	s.render(w, r, "follows", http.StatusOK, followsData{
		Target: target,
		Users:  users,
		Title:  "Followers of " + target.Username,
	})
}

type notificationsData struct {
	Requests []domain.FollowRequest
}

// handleNotifications handles the route "GET /notifications". It lists
// the pending follow requests awaiting the user's approval.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user, err := s.us.ByID(currentUser(r).ID)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.render(w, r, "notifications", http.StatusOK, notificationsData{
		Requests: user.RequestsReceived,
	})
}

type settingsForm struct {
	Username string
	Email    string
	ImageURL string
	Error    string
}

// handleSettingsPage handles the route "GET /settings".
func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.render(w, r, "settings", http.StatusOK, settingsForm{
		Username: user.Username,
		Email:    user.Email,
		ImageURL: user.ImageURL,
	})
}

// handleSettingsSave handles the route "POST /settings". It updates the
// account's username, email and profile image.
func (s *Server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.Error(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	user := currentUser(r)
	user.Username = r.PostFormValue("username")
	user.Email = r.PostFormValue("email")
	user.ImageURL = r.PostFormValue("image_url")
	if err := s.us.Update(user); err != nil {
		switch errs.ErrorCode(err) {
		case errs.EINVALID, errs.ECONFLICT:
			s.render(w, r, "settings", http.StatusOK, settingsForm{
				Username: user.Username,
				Email:    user.Email,
				ImageURL: user.ImageURL,
				Error:    errs.ErrorMessage(err),
			})
		default:
			s.Error(w, r, err)
		}
		return
	}
	s.flash(w, r, "success", "Changes saved")
	http.Redirect(w, r, "/settings", http.StatusFound)
}

// handleSetPrivate handles the route "POST /settings/private".
func (s *Server) handleSetPrivate(w http.ResponseWriter, r *http.Request) {
	if err := s.us.SetPrivate(currentUser(r), true); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Account now private")
	http.Redirect(w, r, "/settings", http.StatusFound)
}

// handleSetPublic handles the route "POST /settings/unprivate".
func (s *Server) handleSetPublic(w http.ResponseWriter, r *http.Request) {
	if err := s.us.SetPrivate(currentUser(r), false); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Account now public")
	http.Redirect(w, r, "/settings", http.StatusFound)
}

// handleUserDelete handles the route "POST /users/delete". The account
// and everything it owns go away together.
func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.us.Delete(currentUser(r)); err != nil {
		s.Error(w, r, err)
		return
	}
	s.signOut(w, r)
	s.flash(w, r, "success", "User deleted")
	http.Redirect(w, r, "/signup", http.StatusFound)
}

// targetUser parses the {id} route param and loads that user, rendering
// the 404 page when the id does not exist.
func (s *Server) targetUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		s.render(w, r, "404", http.StatusNotFound, nil)
		return nil, false
	}
	target, err := s.us.ByID(id)
	if err != nil {
		s.Error(w, r, err)
		return nil, false
	}
	return target, true
}
