// Package http exposes the quiz core over plain HTTP plus a websocket live
// analytics stream.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// viewerRoleHeader carries the already-authenticated viewer role; auth
// middleware is an external collaborator.
const viewerRoleHeader = "X-Viewer-Role"

type Handler struct {
	participations *app.ParticipationService
	reports        *app.AnalyticsService
	exporter       *app.Exporter
}

func NewHandler(participations *app.ParticipationService, reports *app.AnalyticsService, exporter *app.Exporter) *Handler {
	return &Handler{
		participations: participations,
		reports:        reports,
		exporter:       exporter,
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /participations", h.submitParticipation)
	mux.HandleFunc("GET /analytics", h.getAnalytics)
	mux.HandleFunc("GET /analytics/realtime", h.getRealtimeAnalytics)
	mux.HandleFunc("POST /analytics/invalidate", h.invalidateAnalytics)
	mux.HandleFunc("GET /analytics/export", h.exportAnalytics)
	mux.HandleFunc("GET /xp/preview", h.previewXP)
}

type submitRequest struct {
	UserID    string `json:"user_id"`
	QuizID    string `json:"quiz_id"`
	TimeTaken *int   `json:"time_taken,omitempty"`
	Answers   []struct {
		QuestionID string          `json:"question_id"`
		Answer     json.RawMessage `json:"answer"`
	} `json:"answers"`
}

func (h *Handler) submitParticipation(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "user_id and quiz_id are required")
		return
	}

	sub := app.Submission{
		UserID:    req.UserID,
		QuizID:    req.QuizID,
		TimeTaken: req.TimeTaken,
	}
	for _, a := range req.Answers {
		sub.Answers = append(sub.Answers, app.RawAnswer{QuestionID: a.QuestionID, Value: a.Answer})
	}

	result, err := h.participations.Submit(r.Context(), sub)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// writeSubmitError keeps AlreadyAttempted distinguishable; everything
// unexpected collapses into one generic retryable message.
func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyAttempted):
		writeError(w, http.StatusConflict, "you have already taken this quiz")
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrEmptySubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("submission failed: %v", err)
		writeError(w, http.StatusInternalServerError, "submission failed, please try again")
	}
}

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	report, err := h.reports.GetReport(r.Context(), quizID, viewerRole(r))
	if err != nil {
		h.writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) getRealtimeAnalytics(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	stats, err := h.reports.GetRealtimeStats(r.Context(), quizID, viewerRole(r))
	if err != nil {
		h.writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) invalidateAnalytics(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	if err := h.reports.Invalidate(r.Context(), quizID); err != nil {
		log.Printf("invalidate analytics cache for quiz %s: %v", quizID, err)
		writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportAnalytics(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	doc, contentType, err := h.exporter.Export(r.Context(), quizID, format, viewerRole(r))
	if err != nil {
		if errors.Is(err, app.ErrUnsupportedFormat) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeReportError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="quiz-`+quizID+`-analytics.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) previewXP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quizID := q.Get("quizId")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	totalScore, err1 := strconv.Atoi(q.Get("score"))
	correct, err2 := strconv.Atoi(q.Get("correct"))
	total, err3 := strconv.Atoi(q.Get("total"))
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "score, correct and total must be integers")
		return
	}

	award, err := h.participations.PreviewXP(r.Context(), quizID, totalScore, correct, total)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptySubmission):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrQuizNotFound):
			writeError(w, http.StatusNotFound, "quiz not found")
		default:
			log.Printf("xp preview failed: %v", err)
			writeError(w, http.StatusInternalServerError, "xp preview failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, award)
}

func (h *Handler) writeReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrQuizNotFound) {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	log.Printf("analytics request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "analytics request failed")
}

func viewerRole(r *http.Request) domain.Role {
	return domain.Role(r.Header.Get(viewerRoleHeader))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
