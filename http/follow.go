package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aninishioka/craft-app/domain"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id:[0-9]+}/follow", s.requireUser(s.handleFollow)).Methods("POST")
	r.HandleFunc("/users/{id:[0-9]+}/unfollow", s.requireUser(s.handleUnfollow)).Methods("POST")
	r.HandleFunc("/users/{id:[0-9]+}/cancel_request", s.requireUser(s.handleCancelRequest)).Methods("POST")
	r.HandleFunc("/requests/{id:[0-9]+}/confirm", s.requireUser(s.handleConfirmRequest)).Methods("POST")
	r.HandleFunc("/requests/{id:[0-9]+}/delete", s.requireUser(s.handleDenyRequest)).Methods("POST")
}

// handleFollow handles the route "POST /users/{id}/follow". Following a
// private account files a pending request instead of an edge.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	actor := currentUser(r)
	if err := s.fs.Follow(actor, target); err != nil {
		s.Error(w, r, err)
		return
	}
	if target.Private {
		s.flash(w, r, "success", "Request sent to "+target.Username)
	} else {
		s.metrics.Follows.WithLabelValues(r.URL.Path).Inc()
		s.flash(w, r, "success", "Now following "+target.Username)
	}
	s.redirectBack(w, r, "/users/"+strconv.Itoa(target.ID))
}

// handleUnfollow handles the route "POST /users/{id}/unfollow". An
// absent edge is not an error.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	if err := s.fs.Unfollow(currentUser(r), target); err != nil {
		s.Error(w, r, err)
		return
	}
	s.metrics.Unfollows.WithLabelValues(r.URL.Path).Inc()
	s.flash(w, r, "success", "Unfollowed "+target.Username)
	s.redirectBack(w, r, "/users/"+strconv.Itoa(target.ID))
}

// handleCancelRequest handles the route "POST /users/{id}/cancel_request".
func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	if err := s.fs.CancelRequest(currentUser(r), target); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Canceled follow request")
	s.redirectBack(w, r, "/users/"+strconv.Itoa(target.ID))
}

// handleConfirmRequest handles the route "POST /requests/{id}/confirm".
// The {id} is the requester's user id; the logged in user is the target
// approving it. Removing the request and adding the edge is one unit.
func (s *Server) handleConfirmRequest(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	if err := s.fs.ConfirmRequest(currentUser(r), requester); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", requester.Username+" is following you now")
	http.Redirect(w, r, "/notifications", http.StatusFound)
}

// handleDenyRequest handles the route "POST /requests/{id}/delete".
func (s *Server) handleDenyRequest(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	if err := s.fs.DenyRequest(currentUser(r), requester); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Deleted follow request")
	http.Redirect(w, r, "/notifications", http.StatusFound)
}

// requestUser loads the user named by the {id} param of a request route.
func (s *Server) requestUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		s.render(w, r, "404", http.StatusNotFound, nil)
		return nil, false
	}
	requester, err := s.us.ByID(id)
	if err != nil {
		s.Error(w, r, err)
		return nil, false
	}
	return requester, true
}
