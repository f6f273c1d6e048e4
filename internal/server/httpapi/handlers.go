package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/steps"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

type submissionDTO struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	SubmittedAt time.Time             `json:"submittedAt"`
	Data        models.SubmissionData `json:"data"`
	Status      string                `json:"status"`
	Version     int                   `json:"version"`
}

func toSubmissionDTO(sub *models.Submission) submissionDTO {
	return submissionDTO{
		ID:          sub.ID,
		UserID:      sub.UserID,
		SubmittedAt: sub.SubmittedAt,
		Data:        sub.Data,
		Status:      string(sub.Status),
		Version:     sub.Version,
	}
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "email and password are required")
		return
	}

	user, token, err := s.identity.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		s.logger.Error(r.Context(), "registration failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"userId": user.ID, "accessToken": token})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	token, err := s.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *HTTPServer) handleInitialize(w http.ResponseWriter, r *http.Request) {
	session, err := s.onboarding.Initialize(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.logger.Error(r.Context(), "initialize failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not load onboarding state")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleCompleteStep(w http.ResponseWriter, r *http.Request) {
	stepID := steps.ID(chi.URLParam(r, "stepID"))
	if !steps.Valid(stepID) {
		writeError(w, http.StatusNotFound, "UNKNOWN_STEP", "unknown step: "+string(stepID))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	next, err := s.onboarding.CompleteStep(r.Context(), userIDFrom(r.Context()), stepID, payload)
	if err != nil {
		var verr *steps.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Code:    "VALIDATION_FAILED",
				Message: "step payload rejected",
				Fields:  verr.Fields,
			})
		case errors.Is(err, common.ErrorOutOfSequence):
			writeError(w, http.StatusConflict, "OUT_OF_SEQUENCE", err.Error())
		default:
			s.logger.Error(r.Context(), "complete step failed", "step", stepID, "error", err.Error())
			writeError(w, http.StatusInternalServerError, "INTERNAL", "could not save step")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"nextIndex": next})
}

func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, err := s.onboarding.Submit(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorReviewNotReached):
			writeError(w, http.StatusConflict, "REVIEW_NOT_REACHED", err.Error())
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "NO_DRAFT", "nothing to submit")
		default:
			s.logger.Error(r.Context(), "submit failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "INTERNAL", "could not submit")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toSubmissionDTO(sub))
}

func (s *HTTPServer) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.onboarding.ListSubmissions(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.logger.Error(r.Context(), "list submissions failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not list submissions")
		return
	}

	out := make([]submissionDTO, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubmissionDTO(sub))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleLatestSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.onboarding.LatestSubmission(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no submissions yet")
			return
		}
		s.logger.Error(r.Context(), "latest submission failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not load submission")
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionDTO(sub))
}
