package http

import (
	"encoding/gob"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/aninishioka/craft-app/auth"
	"github.com/aninishioka/craft-app/crud"
	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
	"github.com/aninishioka/craft-app/views"
)

const sessionName = "craft_session"

func init() {
	// Flash messages travel through the session cookie.
	gob.Register(views.Flash{})
}

// Server provides the http functionality of the app: routing, request
// handling, session auth and middleware. It checks authorization before
// handing things over to one of the crud services.
type Server struct {
	router   *mux.Router
	sessions *sessions.CookieStore
	views    *views.Views
	metrics  *Metrics

	us  domain.UserService
	fs  domain.FollowService
	ps  domain.ProjectService
	tls domain.TimeLogService
	cs  domain.ConversationService

	csrfEnabled bool
}

// NewServer returns a new instance of the server, registers all routes
// and gives their handlers access to the app services passed in. A nil
// csrfKey disables the CSRF middleware; only tests do that.
func NewServer(isProd bool, sessionKey, csrfKey []byte, services *crud.Services) (*Server, error) {
	v, err := views.New()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:      mux.NewRouter(),
		sessions:    sessions.NewCookieStore(sessionKey),
		views:       v,
		metrics:     NewMetrics(),
		us:          services.User,
		fs:          services.Follow,
		ps:          services.Project,
		tls:         services.TimeLog,
		cs:          services.Conversation,
		csrfEnabled: csrfKey != nil,
	}
	s.sessions.Options.HttpOnly = true
	s.sessions.Options.Secure = isProd

	s.router.HandleFunc("/", s.handleHome).Methods("GET")
	s.router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", views.Static())).Methods("GET")
	s.registerAuthRoutes(s.router)
	s.registerUserRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerProjectRoutes(s.router)
	s.registerTimeLogRoutes(s.router)
	s.registerConversationRoutes(s.router)
	s.registerMetricsRoutes(s.router)

	s.router.NotFoundHandler = s.loadUser(http.HandlerFunc(s.handleNotFound))

	s.router.Use(s.logRequest, s.countRequest)
	if s.csrfEnabled {
		csrfMw := csrf.Protect(csrfKey, csrf.Secure(isProd), csrf.Path("/"))
		s.router.Use(csrfMw)
	}
	s.router.Use(s.loadUser)
	return s, nil
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) {
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(port), s.router))
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHome handles the route "GET /". Anonymous visitors get the
// landing page, logged in users their own profile.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if user := auth.GetUser(r.Context()); user != nil {
		http.Redirect(w, r, "/users/"+strconv.Itoa(user.ID), http.StatusFound)
		return
	}
	s.render(w, r, "home", http.StatusOK, nil)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "404", http.StatusNotFound, nil)
}

// loadUser looks the session's user id up in the database and puts the
// user into the request context. Unknown or stale sessions fall through
// as anonymous.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.session(r)
		id, ok := session.Values["user_id"].(int)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByID(id)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireUser gates a handler behind authentication. Anonymous requests
// get the "Unauthorized" flash and land on the home page.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			s.flash(w, r, "danger", "Unauthorized")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// session returns the request's session, or a fresh one if the cookie
// fails to decode.
func (s *Server) session(r *http.Request) *sessions.Session {
	session, _ := s.sessions.Get(r, sessionName)
	return session
}

// flash queues a flash message for the next rendered page.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := s.session(r)
	session.AddFlash(views.Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		errs.LogError(r, err)
	}
}

// flashes drains the queued flash messages.
func (s *Server) flashes(w http.ResponseWriter, r *http.Request) []views.Flash {
	session := s.session(r)
	raw := session.Flashes()
	if len(raw) > 0 {
		if err := session.Save(r, w); err != nil {
			errs.LogError(r, err)
		}
	}
	flashes := make([]views.Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(views.Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

// render wraps the page data in the envelope every template expects.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data interface{}) {
	page := views.Page{
		User:    auth.GetUser(r.Context()),
		Flashes: s.flashes(w, r),
		Data:    data,
	}
	if s.csrfEnabled {
		page.CSRF = csrf.TemplateField(r)
	}
	s.views.Render(w, r, name, status, page)
}

// Error surfaces a failed operation the way the app's error design
// prescribes: authorization failures flash and go home, missing records
// 404, anything unexpected is logged and becomes a 500 page. Validation
// and conflict errors are handled at the form that caused them, so by
// the time an error reaches here those two also just surface.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch errs.ErrorCode(err) {
	case errs.EUNAUTHORIZED:
		s.flash(w, r, "danger", "Unauthorized")
		http.Redirect(w, r, "/", http.StatusFound)
	case errs.ENOTFOUND:
		s.render(w, r, "404", http.StatusNotFound, nil)
	case errs.EINVALID, errs.ECONFLICT:
		s.flash(w, r, "danger", errs.ErrorMessage(err))
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		errs.LogError(r, err)
		s.render(w, r, "500", http.StatusInternalServerError, nil)
	}
}

// redirectBack returns the actor to their originating page when the
// mutating request carried a came_from parameter. Only local paths are
// accepted.
func (s *Server) redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := r.FormValue("came_from")
	if !isLocalPath(target) {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// isLocalPath rejects redirect targets that would leave the site.
func isLocalPath(p string) bool {
	return len(p) > 0 && p[0] == '/' && !(len(p) > 1 && p[1] == '/')
}
