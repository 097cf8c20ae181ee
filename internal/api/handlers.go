package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/growth-tracker/internal/analytics"
	"github.com/terra-clan/growth-tracker/internal/assessment"
	"github.com/terra-clan/growth-tracker/internal/models"
	"github.com/terra-clan/growth-tracker/internal/storage"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondOperationError maps tracker and store failures onto the
// error taxonomy.
func respondOperationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, assessment.ErrInvalidArea):
		respondError(w, http.StatusBadRequest, "invalid_area", err.Error())
	case errors.Is(err, assessment.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
	case errors.Is(err, storage.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "permission_denied", fallback)
	case errors.Is(err, storage.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", fallback)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Assessment handlers

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	entry := EntryFromContext(r.Context())
	tracker := entry.Tracker

	if r.URL.Query().Get("refresh") == "true" {
		if err := tracker.Refresh(r.Context()); err != nil {
			slog.Error("failed to refresh assessments", "error", err)
			respondOperationError(w, err, "failed to refresh assessments")
			return
		}
	}

	list := tracker.Assessments()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": list,
		"total":       len(list),
		"loading":     tracker.IsLoading(),
	})
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "assessment id is required")
		return
	}

	tracker := EntryFromContext(r.Context()).Tracker
	if err := tracker.Delete(r.Context(), id); err != nil {
		slog.Error("failed to delete assessment", "error", err, "id", id)
		respondOperationError(w, err, "failed to delete assessment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "assessment deleted",
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker

	data, name, err := tracker.Export()
	if err != nil {
		slog.Error("failed to export assessments", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to export assessments")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

// Draft handlers

type scoreRequest struct {
	Area  models.Area `json:"area"`
	Value float64     `json:"value"`
}

type noteRequest struct {
	Area models.Area `json:"area"`
	Text string      `json:"text"`
}

func (s *Server) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker
	tracker.Start()
	respondJSON(w, http.StatusCreated, tracker.Draft())
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker

	draft := tracker.Draft()
	if draft == nil {
		respondError(w, http.StatusNotFound, "not_found", "no draft in progress")
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

func (s *Server) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tracker := EntryFromContext(r.Context()).Tracker
	if err := tracker.UpdateScore(req.Area, req.Value); err != nil {
		respondOperationError(w, err, "failed to update score")
		return
	}

	respondJSON(w, http.StatusOK, tracker.Draft())
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tracker := EntryFromContext(r.Context()).Tracker
	if err := tracker.UpdateNote(req.Area, req.Text); err != nil {
		respondOperationError(w, err, "failed to update note")
		return
	}

	respondJSON(w, http.StatusOK, tracker.Draft())
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker

	saved, err := tracker.Save(r.Context())
	if err != nil {
		slog.Error("failed to save assessment", "error", err)
		respondOperationError(w, err, "failed to save assessment")
		return
	}

	if saved == nil {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "no draft in progress",
		})
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker
	tracker.Cancel()
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "draft cancelled",
	})
}

// Analytics handlers

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker
	list := tracker.Assessments()

	window := analytics.DefaultTrendWindow
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		if n, err := strconv.Atoi(windowStr); err == nil && n > 0 {
			window = n
		}
	}

	summary := map[string]interface{}{
		"total": len(list),
	}

	if len(list) > 0 {
		summary["average"] = analytics.AverageScore(list[0])
		summary["latest"] = list[0]
	}

	trends := make(map[models.Area]analytics.Trend, len(models.Areas()))
	for _, area := range models.Areas() {
		trends[area] = analytics.AreaTrend(list, area, window)
	}
	summary["trends"] = trends

	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"insights": analytics.Insights(tracker.Assessments()),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	tracker := EntryFromContext(r.Context()).Tracker

	limit := analytics.DefaultChartLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	respondJSON(w, http.StatusOK, analytics.ChartData(tracker.Assessments(), limit))
}

// Area handlers

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas := models.AreaInfos()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"areas": areas,
		"total": len(areas),
	})
}

func (s *Server) handleAreaQuestions(w http.ResponseWriter, r *http.Request) {
	area := models.Area(chi.URLParam(r, "id"))
	if !area.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_area", "unknown area: "+string(area))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"area":      area,
		"questions": s.prompts.Questions(area),
	})
}
