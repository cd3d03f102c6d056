package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
	"github.com/aninishioka/craft-app/forms"
)

func (s *Server) registerProjectRoutes(r *mux.Router) {
	r.HandleFunc("/projects/new", s.requireUser(s.handleNewProjectPage)).Methods("GET")
	r.HandleFunc("/projects/new", s.requireUser(s.handleNewProject)).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}", s.requireUser(s.handleProjectPage)).Methods("GET")
	r.HandleFunc("/projects/{id:[0-9]+}/edit", s.requireUser(s.handleEditProjectPage)).Methods("GET")
	r.HandleFunc("/projects/{id:[0-9]+}/edit", s.requireUser(s.handleEditProject)).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}/delete", s.requireUser(s.handleDeleteProject)).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}/pin", s.requireUser(s.handlePinProject)).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}/unpin", s.requireUser(s.handleUnpinProject)).Methods("POST")
	r.HandleFunc("/projects/{id:[0-9]+}/edit_progress", s.requireUser(s.handleEditProgress)).Methods("POST")
}

// projectFormData is the envelope the project form template renders.
type projectFormData struct {
	Form    *forms.ProjectForm
	Needles []domain.Needle
	Hooks   []domain.Hook
	Action  string
	EditID  int
}

// handleNewProjectPage handles the route "GET /projects/new".
func (s *Server) handleNewProjectPage(w http.ResponseWriter, r *http.Request) {
	form := &forms.ProjectForm{Status: domain.StatusPlanned}
	s.renderProjectForm(w, r, form, 0)
}

// handleNewProject handles the route "POST /projects/new". The form's
// repeatable yarn/needle/hook rows are edited across round trips: a
// submission requesting a structural change (or whose remove flags
// removed anything) re-renders the mutated form and never saves, even
// when the static fields would validate. Only a plain submission that
// validates is persisted.
func (s *Server) handleNewProject(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseProjectForm(w, r)
	if !ok {
		return
	}
	if s.applyStructural(form) || !form.Validate() {
		s.renderProjectForm(w, r, form, 0)
		return
	}
	project := domain.Project{
		UserID:   currentUser(r).ID,
		Title:    form.Title,
		Pattern:  form.Pattern,
		Designer: form.Designer,
		Content:  form.Content,
		Status:   form.Status,
	}
	err := s.ps.Create(&project, form.NeedleSizes(), form.HookSizes(), form.YarnModels())
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			form.Error = errs.ErrorMessage(err)
			s.renderProjectForm(w, r, form, 0)
			return
		}
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Project created")
	http.Redirect(w, r, "/projects/"+strconv.Itoa(project.ID), http.StatusFound)
}

type projectPageData struct {
	Project *domain.Project
	IsOwner bool
}

// handleProjectPage handles the route "GET /projects/{id}". Projects of
// a private owner show the private placeholder to everyone but the owner
// and their followers.
func (s *Server) handleProjectPage(w http.ResponseWriter, r *http.Request) {
	project, ok := s.targetProject(w, r)
	if !ok {
		return
	}
	actor := currentUser(r)
	if !domain.CanViewUser(actor, &project.User) {
		s.render(w, r, "private", http.StatusOK, profileData{Target: &project.User})
		return
	}
	s.render(w, r, "project", http.StatusOK, projectPageData{
		Project: project,
		IsOwner: domain.CanMutateProject(actor, project),
	})
}

// handleEditProjectPage handles the route "GET /projects/{id}/edit".
func (s *Server) handleEditProjectPage(w http.ResponseWriter, r *http.Request) {
	project, ok := s.ownProject(w, r)
	if !ok {
		return
	}
	s.renderProjectForm(w, r, forms.FromProject(project), project.ID)
}

// handleEditProject handles the route "POST /projects/{id}/edit". Same
// round trip state machine as creation; a successful save replaces the
// full needle/hook/yarn association sets with the submitted ones.
func (s *Server) handleEditProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.ownProject(w, r)
	if !ok {
		return
	}
	form, ok := s.parseProjectForm(w, r)
	if !ok {
		return
	}
	if s.applyStructural(form) || !form.Validate() {
		s.renderProjectForm(w, r, form, project.ID)
		return
	}
	project.Title = form.Title
	project.Pattern = form.Pattern
	project.Designer = form.Designer
	project.Content = form.Content
	project.Status = form.Status
	err := s.ps.Update(project, form.NeedleSizes(), form.HookSizes(), form.YarnModels())
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			form.Error = errs.ErrorMessage(err)
			s.renderProjectForm(w, r, form, project.ID)
			return
		}
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Changes saved")
	http.Redirect(w, r, "/projects/"+strconv.Itoa(project.ID), http.StatusFound)
}

// handleDeleteProject handles the route "POST /projects/{id}/delete".
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.ownProject(w, r)
	if !ok {
		return
	}
	if err := s.ps.Delete(project); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Project deleted")
	s.redirectBack(w, r, "/users/"+strconv.Itoa(currentUser(r).ID))
}

// handlePinProject handles the route "POST /projects/{id}/pin".
func (s *Server) handlePinProject(w http.ResponseWriter, r *http.Request) {
	s.setPinned(w, r, true)
}

// handleUnpinProject handles the route "POST /projects/{id}/unpin".
func (s *Server) handleUnpinProject(w http.ResponseWriter, r *http.Request) {
	s.setPinned(w, r, false)
}

func (s *Server) setPinned(w http.ResponseWriter, r *http.Request, pinned bool) {
	project, ok := s.ownProject(w, r)
	if !ok {
		return
	}
	if err := s.ps.SetPinned(project, pinned); err != nil {
		s.Error(w, r, err)
		return
	}
	s.redirectBack(w, r, "/projects/"+strconv.Itoa(project.ID))
}

// handleEditProgress handles the route "POST /projects/{id}/edit_progress".
func (s *Server) handleEditProgress(w http.ResponseWriter, r *http.Request) {
	project, ok := s.ownProject(w, r)
	if !ok {
		return
	}
	if err := s.ps.UpdateStatus(project, r.FormValue("status")); err != nil {
		s.Error(w, r, err)
		return
	}
	s.flash(w, r, "success", "Changes saved")
	s.redirectBack(w, r, "/projects/"+strconv.Itoa(project.ID))
}

// targetProject parses the {id} route param and loads the project.
func (s *Server) targetProject(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		s.render(w, r, "404", http.StatusNotFound, nil)
		return nil, false
	}
	project, err := s.ps.ByID(id)
	if err != nil {
		s.Error(w, r, err)
		return nil, false
	}
	return project, true
}

// ownProject loads the project and enforces the ownership check mutating
// routes need. Non-owners get the unauthorized treatment, and nothing is
// mutated.
func (s *Server) ownProject(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	project, ok := s.targetProject(w, r)
	if !ok {
		return nil, false
	}
	if !domain.CanMutateProject(currentUser(r), project) {
		s.Error(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized"))
		return nil, false
	}
	return project, true
}

// parseProjectForm reads the full form state out of the request.
func (s *Server) parseProjectForm(w http.ResponseWriter, r *http.Request) (*forms.ProjectForm, bool) {
	if err := r.ParseForm(); err != nil {
		s.Error(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return nil, false
	}
	return forms.ParseProjectForm(r.PostForm), true
}

// applyStructural mutates the form's row lists per the requested action,
// defaulting fresh needle/hook rows to the first catalog size.
func (s *Server) applyStructural(form *forms.ProjectForm) bool {
	return form.Apply(s.defaultNeedleSize(), s.defaultHookSize())
}

func (s *Server) defaultNeedleSize() string {
	needles, err := s.ps.NeedleCatalog()
	if err != nil || len(needles) == 0 {
		return ""
	}
	return needles[0].Size
}

func (s *Server) defaultHookSize() string {
	hooks, err := s.ps.HookCatalog()
	if err != nil || len(hooks) == 0 {
		return ""
	}
	return hooks[0].Size
}

// renderProjectForm renders the form page with the catalogs the size
// selects need.
func (s *Server) renderProjectForm(w http.ResponseWriter, r *http.Request, form *forms.ProjectForm, editID int) {
	needles, err := s.ps.NeedleCatalog()
	if err != nil {
		s.Error(w, r, err)
		return
	}
	hooks, err := s.ps.HookCatalog()
	if err != nil {
		s.Error(w, r, err)
		return
	}
	action := "/projects/new"
	if editID > 0 {
		action = "/projects/" + strconv.Itoa(editID) + "/edit"
	}
	s.render(w, r, "project_form", http.StatusOK, projectFormData{
		Form:    form,
		Needles: needles,
		Hooks:   hooks,
		Action:  action,
		EditID:  editID,
	})
}
