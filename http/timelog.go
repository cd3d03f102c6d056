package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

func (s *Server) registerTimeLogRoutes(r *mux.Router) {
	r.HandleFunc("/projects/log_time", s.requireUser(s.handleLogTimePage)).Methods("GET")
	r.HandleFunc("/projects/log_time", s.requireUser(s.handleLogTime)).Methods("POST")
	r.HandleFunc("/logs/{id:[0-9]+}/edit", s.requireUser(s.handleEditLogPage)).Methods("GET")
	r.HandleFunc("/logs/{id:[0-9]+}/edit", s.requireUser(s.handleEditLog)).Methods("POST")
}

// timeLogFormData is the envelope the time log form template renders.
type timeLogFormData struct {
	Project    *domain.Project
	FormAction string
	LogID      int
	Date       string
	Hours      int
	Minutes    int
	Notes      string
	Error      string
}

// handleLogTimePage handles the route "GET /projects/log_time". The
// project is named by the project_id query parameter.
func (s *Server) handleLogTimePage(w http.ResponseWriter, r *http.Request) {
	project, ok := s.logTimeProject(w, r)
	if !ok {
		return
	}
	s.render(w, r, "timelog_form", http.StatusOK, timeLogFormData{
		Project:    project,
		FormAction: "/projects/log_time",
		Date:       time.Now().Format("2006-01-02"),
	})
}

// handleLogTime handles the route "POST /projects/log_time".
func (s *Server) handleLogTime(w http.ResponseWriter, r *http.Request) {
	project, ok := s.logTimeProject(w, r)
	if !ok {
		return
	}
	log, formErr := parseTimeLogForm(r)
	if formErr == nil {
		log.ProjectID = project.ID
		err := s.tls.Create(log)
		if err == nil {
			s.flash(w, r, "success", "Time logged")
			http.Redirect(w, r, "/projects/"+strconv.Itoa(project.ID), http.StatusFound)
			return
		}
		if errs.ErrorCode(err) != errs.EINVALID {
			s.Error(w, r, err)
			return
		}
		formErr = err
	}
	s.render(w, r, "timelog_form", http.StatusOK, timeLogFormData{
		Project:    project,
		FormAction: "/projects/log_time",
		Date:       r.PostFormValue("date"),
		Hours:      log.Hours,
		Minutes:    log.Minutes,
		Notes:      log.Notes,
		Error:      errs.ErrorMessage(formErr),
	})
}

// handleEditLogPage handles the route "GET /logs/{id}/edit".
func (s *Server) handleEditLogPage(w http.ResponseWriter, r *http.Request) {
	log, project, ok := s.ownTimeLog(w, r)
	if !ok {
		return
	}
	s.render(w, r, "timelog_form", http.StatusOK, timeLogFormData{
		Project:    project,
		FormAction: "/logs/" + strconv.Itoa(log.ID) + "/edit",
		LogID:      log.ID,
		Date:       log.Date.Format("2006-01-02"),
		Hours:      log.Hours,
		Minutes:    log.Minutes,
		Notes:      log.Notes,
	})
}

// handleEditLog handles the route "POST /logs/{id}/edit".
func (s *Server) handleEditLog(w http.ResponseWriter, r *http.Request) {
	log, project, ok := s.ownTimeLog(w, r)
	if !ok {
		return
	}
	submitted, formErr := parseTimeLogForm(r)
	if formErr == nil {
		log.Date = submitted.Date
		log.Hours = submitted.Hours
		log.Minutes = submitted.Minutes
		log.Notes = submitted.Notes
		err := s.tls.Update(log)
		if err == nil {
			s.flash(w, r, "success", "Changes saved")
			http.Redirect(w, r, "/projects/"+strconv.Itoa(project.ID), http.StatusFound)
			return
		}
		if errs.ErrorCode(err) != errs.EINVALID {
			s.Error(w, r, err)
			return
		}
		formErr = err
	}
	s.render(w, r, "timelog_form", http.StatusOK, timeLogFormData{
		Project:    project,
		FormAction: "/logs/" + strconv.Itoa(log.ID) + "/edit",
		LogID:      log.ID,
		Date:       r.PostFormValue("date"),
		Hours:      submitted.Hours,
		Minutes:    submitted.Minutes,
		Notes:      submitted.Notes,
		Error:      errs.ErrorMessage(formErr),
	})
}

// parseTimeLogForm reads a time log out of the posted values. The
// returned log is non-nil even on error so the re-render keeps the
// submitted state.
func parseTimeLogForm(r *http.Request) (*domain.TimeLog, error) {
	if err := r.ParseForm(); err != nil {
		return &domain.TimeLog{}, errs.Errorf(errs.EINVALID, "Invalid form data.")
	}
	hours, _ := strconv.Atoi(r.PostFormValue("hours"))
	minutes, _ := strconv.Atoi(r.PostFormValue("minutes"))
	log := &domain.TimeLog{
		Hours:   hours,
		Minutes: minutes,
		Notes:   r.PostFormValue("notes"),
	}
	date, err := time.Parse("2006-01-02", r.PostFormValue("date"))
	if err != nil {
		return log, errs.Errorf(errs.EINVALID, "A date is required.")
	}
	log.Date = date
	return log, nil
}

// logTimeProject loads the project named by project_id and enforces
// ownership: only the owner logs time against a project.
func (s *Server) logTimeProject(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	id, err := strconv.Atoi(r.FormValue("project_id"))
	if err != nil || id <= 0 {
		s.render(w, r, "404", http.StatusNotFound, nil)
		return nil, false
	}
	project, err := s.ps.ByID(id)
	if err != nil {
		s.Error(w, r, err)
		return nil, false
	}
	if !domain.CanMutateProject(currentUser(r), project) {
		s.Error(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized"))
		return nil, false
	}
	return project, true
}

// ownTimeLog loads the log named by the {id} route param together with
// its parent project and enforces the delegated ownership check.
func (s *Server) ownTimeLog(w http.ResponseWriter, r *http.Request) (*domain.TimeLog, *domain.Project, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		s.render(w, r, "404", http.StatusNotFound, nil)
		return nil, nil, false
	}
	log, err := s.tls.ByID(id)
	if err != nil {
		s.Error(w, r, err)
		return nil, nil, false
	}
	if !domain.CanMutateTimeLog(currentUser(r), log, &log.Project) {
		s.Error(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized"))
		return nil, nil, false
	}
	return log, &log.Project, true
}
