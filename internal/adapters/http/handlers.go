package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/middleware"
	"github.com/ddlabs/dd-mcp-service/internal/application"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// HealthResponse is the /health payload. The endpoint never fails the
// request; an unreachable cache store is reported in the body instead.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: rt.config.Get().App.ServiceName,
	}
	if err := rt.cache.Ping(r.Context()); err != nil {
		rt.logger.Warn(r.Context(), "Health check: cache store ping failed", "error", err.Error())
		resp.Status = "unhealthy"
		resp.Error = err.Error()
	}
	rt.writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) handleGetScores(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.CredentialsFromContext(r.Context())
	if !ok {
		domain.NewErrorResponse(domain.ErrUnauthorized, "Missing Bearer").WriteJSON(w, http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	req := application.ScoreRequest{
		Date:      query.Get("date"),
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
	}
	if rawDays := query.Get("days"); rawDays != "" {
		days, err := strconv.Atoi(rawDays)
		if err != nil {
			domain.NewErrorResponse(domain.ErrValidation, "'days' must be an integer.").WriteJSON(w, http.StatusUnprocessableEntity)
			return
		}
		req.Days = &days
	}

	results, err := rt.scores.GetScores(r.Context(), creds, req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, results)
}

// biomarkersByCategory returns the handler for one of the fixed-category
// biomarker endpoints (Measurements, Capabilities, Biomarkers).
func (rt *Router) biomarkersByCategory(categoryName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := middleware.CredentialsFromContext(r.Context())
		if !ok {
			domain.NewErrorResponse(domain.ErrUnauthorized, "Missing Bearer").WriteJSON(w, http.StatusUnauthorized)
			return
		}

		payload, err := rt.biomarkers.GetByCategoryName(r.Context(), creds, categoryName)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		rt.writeRaw(w, http.StatusOK, payload)
	}
}

func (rt *Router) handleAllBiomarkers(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.CredentialsFromContext(r.Context())
	if !ok {
		domain.NewErrorResponse(domain.ErrUnauthorized, "Missing Bearer").WriteJSON(w, http.StatusUnauthorized)
		return
	}

	results, err := rt.biomarkers.GetAll(r.Context(), creds)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, results)
}

func (rt *Router) handleUserProtocols(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.CredentialsFromContext(r.Context())
	if !ok {
		domain.NewErrorResponse(domain.ErrUnauthorized, "Missing Bearer").WriteJSON(w, http.StatusUnauthorized)
		return
	}

	includeSections := false
	if raw := r.URL.Query().Get("include_sections"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			domain.NewErrorResponse(domain.ErrValidation, "'include_sections' must be a boolean.").WriteJSON(w, http.StatusUnprocessableEntity)
			return
		}
		includeSections = parsed
	}

	protocols, err := rt.protocols.List(r.Context(), creds, includeSections)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, protocols)
}

func (rt *Router) handleCreateProtocol(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.CredentialsFromContext(r.Context())
	if !ok {
		domain.NewErrorResponse(domain.ErrUnauthorized, "Missing Bearer").WriteJSON(w, http.StatusUnauthorized)
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		rt.logger.Warn(r.Context(), "Failed to decode /createUserProtocol payload", "error", err.Error())
		domain.NewErrorResponse(domain.ErrBadRequest, "Invalid request payload").WriteJSON(w, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	created, err := rt.protocols.Create(r.Context(), creds, payload)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeRaw(w, http.StatusOK, created)
}

func (rt *Router) handleCreateProtocolSection(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.CredentialsFromContext(r.Context())
	if !ok {
		domain.NewErrorResponse(domain.ErrUnauthorized, "Missing Bearer").WriteJSON(w, http.StatusUnauthorized)
		return
	}

	protocolID := r.URL.Query().Get("protocol_id")
	if protocolID == "" {
		domain.NewErrorResponse(domain.ErrValidation, "'protocol_id' is required.").WriteJSON(w, http.StatusUnprocessableEntity)
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		rt.logger.Warn(r.Context(), "Failed to decode /createUserProtocolSection payload", "error", err.Error())
		domain.NewErrorResponse(domain.ErrBadRequest, "Invalid request payload").WriteJSON(w, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	created, err := rt.protocols.CreateSection(r.Context(), creds, protocolID, payload)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeRaw(w, http.StatusOK, created)
}

// writeError maps application/domain errors onto HTTP statuses: validation
// failures to 422, unknown category names to 404, everything else (upstream
// status and transport failures included) to a 500 whose detail is the error
// message, never a stack trace.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *application.ValidationError
	if errors.As(err, &validationErr) {
		domain.NewErrorResponse(domain.ErrValidation, validationErr.Detail).WriteJSON(w, http.StatusUnprocessableEntity)
		return
	}

	var notFoundErr *application.CategoryNotFoundError
	if errors.As(err, &notFoundErr) {
		domain.NewErrorResponse(domain.ErrNotFound, notFoundErr.Error()).WriteJSON(w, http.StatusNotFound)
		return
	}

	rt.logger.Error(r.Context(), "Unhandled error", "path", r.URL.Path, "error", err.Error())
	domain.NewErrorResponse(domain.ErrInternal, err.Error()).WriteJSON(w, http.StatusInternalServerError)
}

func (rt *Router) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Hard to do much if response writing itself fails.
		rt.logger.Error(context.Background(), "Failed to encode response", "error", err.Error())
	}
}

// writeRaw passes an upstream JSON payload through untouched.
func (rt *Router) writeRaw(w http.ResponseWriter, statusCode int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(payload)
}
