package server

import (
	"net/http"

	"resumescore/internal/errors"
	"resumescore/internal/jobs"
	"resumescore/internal/types"
)

// currentUser returns the user id placed in the context by userAuthMiddleware
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeAppError(w, errors.NewAuthError(errors.ErrCodeInvalidToken, "missing user", nil))
	}
	return userID, ok
}

// lookupJob resolves the {jobID} path value against the current catalog
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (types.JobPosting, bool) {
	jobID := r.PathValue("jobID")
	postings, err := s.analyzer.Postings(r.Context())
	if err != nil {
		writeAppError(w, err)
		return types.JobPosting{}, false
	}
	job, ok := jobs.Find(postings, jobID)
	if !ok {
		writeAppError(w, errors.NewValidationError(errors.ErrCodeNotFound, "job not found", nil).
			WithContext("job_id", jobID))
		return types.JobPosting{}, false
	}
	return job, true
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// putProfileHandler stores the given profile, or the one extracted from text
func (s *Server) putProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	var profile types.CandidateProfile
	if req.Profile != nil {
		profile = *req.Profile
	} else {
		extracted, err := s.analyzer.Extract(req.Text)
		if err != nil {
			writeAppError(w, err)
			return
		}
		profile = extracted
	}

	saved, err := s.store.SaveProfile(r.Context(), userID, req.TargetRole, profile)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) listSavedJobsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	saved, err := s.store.ListSavedJobs(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) saveJobHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	saved, err := s.store.SaveJob(r.Context(), userID, job)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) unsaveJobHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.store.UnsaveJob(r.Context(), userID, r.PathValue("jobID")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	apps, err := s.store.ListApplications(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) applicationStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	stats, err := s.store.ApplicationStats(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) trackApplicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req TrackApplicationRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	app, err := s.store.TrackApplication(r.Context(), userID, job, types.ApplicationStatus(req.Status), req.Notes)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) updateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateApplicationRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	app, err := s.store.UpdateApplicationStatus(r.Context(), userID, r.PathValue("jobID"),
		types.ApplicationStatus(req.Status), req.Notes)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) deleteApplicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteApplication(r.Context(), userID, r.PathValue("jobID")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
