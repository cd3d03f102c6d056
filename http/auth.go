package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aninishioka/craft-app/auth"
	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/signup", s.handleSignupPage).Methods("GET")
	r.HandleFunc("/signup", s.handleSignup).Methods("POST")
	r.HandleFunc("/login", s.handleLoginPage).Methods("GET")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/logout", s.requireUser(s.handleLogout)).Methods("POST")
}

// signupForm carries the signup page's field state through a re-render.
type signupForm struct {
	Username string
	Email    string
	ImageURL string
	Error    string
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup", http.StatusOK, signupForm{})
}

// handleSignup handles the route "POST /signup". On success the new user
// is signed in and lands on their profile. Validation failures re-render
// the form, a taken username or email flashes the conflict message.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.Error(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	user := domain.User{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		ImageURL: r.PostFormValue("image_url"),
		Password: r.PostFormValue("password"),
	}
	if err := s.us.Create(&user); err != nil {
		switch errs.ErrorCode(err) {
		case errs.EINVALID, errs.ECONFLICT:
			s.render(w, r, "signup", http.StatusOK, signupForm{
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
	s.signIn(w, r, &user)
	http.Redirect(w, r, "/users/"+strconv.Itoa(user.ID), http.StatusFound)
}

// loginForm carries the login page's field state through a re-render.
type loginForm struct {
	Username string
	Error    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login", http.StatusOK, loginForm{})
}

// handleLogin handles the route "POST /login". Bad credentials re-render
// the form with one unspecific message.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.Error(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	username := r.PostFormValue("username")
	user, err := s.us.Authenticate(username, r.PostFormValue("password"))
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.render(w, r, "login", http.StatusOK, loginForm{
				Username: username,
				Error:    "Invalid credentials.",
			})
			return
		}
		s.Error(w, r, err)
		return
	}
	s.signIn(w, r, user)
	s.flash(w, r, "success", "Hello, "+user.Username)
	http.Redirect(w, r, "/users/"+strconv.Itoa(user.ID), http.StatusFound)
}

// handleLogout handles the route "POST /logout".
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.signOut(w, r)
	s.flash(w, r, "success", "Logged out")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// signIn stores the user's id in the session.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) {
	session := s.session(r)
	session.Values["user_id"] = user.ID
	if err := session.Save(r, w); err != nil {
		errs.LogError(r, err)
	}
}

// signOut drops the identity from the session.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	delete(session.Values, "user_id")
	if err := session.Save(r, w); err != nil {
		errs.LogError(r, err)
	}
}

// currentUser is a shorthand for the user the loadUser middleware put
// into the context. Handlers behind requireUser may assume it is not nil.
func currentUser(r *http.Request) *domain.User {
	return auth.GetUser(r.Context())
}
