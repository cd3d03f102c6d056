package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

func (s *Server) registerConversationRoutes(r *mux.Router) {
	r.HandleFunc("/conversations", s.requireUser(s.handleConversationList)).Methods("GET")
	r.HandleFunc("/conversations/new", s.requireUser(s.handleNewConversationPage)).Methods("GET")
	r.HandleFunc("/conversations/new", s.requireUser(s.handleNewConversation)).Methods("POST")
	r.HandleFunc("/conversations/{id:[0-9]+}", s.requireUser(s.handleConversationPage)).Methods("GET")
	r.HandleFunc("/conversations/{id:[0-9]+}/new_message", s.requireUser(s.handleNewMessage)).Methods("POST")
}

type conversationListData struct {
	Conversations []domain.Conversation
}

// handleConversationList handles the route "GET /conversations".
func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.cs.ForUser(currentUser(r))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.render(w, r, "conversations", http.StatusOK, conversationListData{
		Conversations: conversations,
	})
}

type conversationPageData struct {
	Conversation *domain.Conversation
}

// handleConversationPage handles the route "GET /conversations/{id}".
// Only participants may read a conversation.
func (s *Server) handleConversationPage(w http.ResponseWriter, r *http.Request) {
	conversation, ok := s.ownConversation(w, r)
	if !ok {
		return
	}
	s.render(w, r, "conversation", http.StatusOK, conversationPageData{
		Conversation: conversation,
	})
}

// handleNewMessage handles the route "POST /conversations/{id}/new_message".
func (s *Server) handleNewMessage(w http.ResponseWriter, r *http.Request) {
	conversation, ok := s.ownConversation(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.Error(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	_, err := s.cs.AddMessage(conversation, currentUser(r), r.PostFormValue("text"))
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.flash(w, r, "danger", errs.ErrorMessage(err))
			http.Redirect(w, r, "/conversations/"+strconv.Itoa(conversation.ID), http.StatusFound)
			return
		}
		s.Error(w, r, err)
		return
	}
	s.metrics.MessagesSent.WithLabelValues(r.URL.Path).Inc()
	http.Redirect(w, r, "/conversations/"+strconv.Itoa(conversation.ID), http.StatusFound)
}

type conversationForm struct {
	Username string
	Error    string
}

// handleNewConversationPage handles the route "GET /conversations/new".
func (s *Server) handleNewConversationPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "conversation_form", http.StatusOK, conversationForm{})
}

// handleNewConversation handles the route "POST /conversations/new". It
// starts (or reopens) a conversation with the named user.
func (s *Server) handleNewConversation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.Error(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	username := r.PostFormValue("username")
	actor := currentUser(r)
	recipient, err := s.us.ByUsername(username)
	if err != nil || recipient.ID == actor.ID {
		s.render(w, r, "conversation_form", http.StatusOK, conversationForm{
			Username: username,
			Error:    "No such user.",
		})
		return
	}
	conversation, err := s.cs.Create([]*domain.User{actor, recipient})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/conversations/"+strconv.Itoa(conversation.ID), http.StatusFound)
}

// ownConversation loads the conversation named by the {id} route param
// and enforces the participant check.
func (s *Server) ownConversation(w http.ResponseWriter, r *http.Request) (*domain.Conversation, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		s.render(w, r, "404", http.StatusNotFound, nil)
		return nil, false
	}
	conversation, err := s.cs.ByID(id)
	if err != nil {
		s.Error(w, r, err)
		return nil, false
	}
	if !domain.CanAccessConversation(currentUser(r), conversation) {
		s.Error(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized"))
		return nil, false
	}
	return conversation, true
}
