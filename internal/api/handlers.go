// Package api exposes the REST CRUD surface for activities.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/gtm/internal/domain"
)

// Notifier pushes a best-effort creation notice to the broadcast channel.
// Implementations must never return delivery failures to the caller.
type Notifier interface {
	NotifyCreated(ctx context.Context, activity *domain.Activity)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service  *domain.Service
	notifier Notifier
}

// NewHandler builds a Handler. notifier may be nil when no side-channel is
// configured.
func NewHandler(service *domain.Service, notifier Notifier) *Handler {
	return &Handler{service: service, notifier: notifier}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_request", "activity id must be a positive integer")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, id)
	case http.MethodPut:
		h.updateActivity(w, r, id, false)
	case http.MethodPatch:
		h.updateActivity(w, r, id, true)
	case http.MethodDelete:
		h.deleteActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.ListFilter{
		Hypothesis: query.Get("hypothesis"),
		Audience:   query.Get("audience"),
		Channels:   query.Get("channels"),
	}
	if raw := query.Get("skip"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filter.Skip = parsed
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	activities, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for i := range activities {
		items = append(items, toActivityView(&activities[i]))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	activity, err := h.service.Create(r.Context(), domain.CreateInput{
		Hypothesis:     valueOr(req.Hypothesis),
		Audience:       req.Audience,
		Channels:       req.Channels,
		Description:    req.Description,
		ListSize:       req.ListSize,
		MeetingsBooked: req.MeetingsBooked,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		EstWeeklyHrs:   req.EstWeeklyHrs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyCreated(r.Context(), activity)
	}
	writeJSON(w, http.StatusCreated, toActivityView(activity))
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id int64) {
	activity, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id int64, partial bool) {
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	activity, err := h.service.Update(r.Context(), id, domain.UpdateInput{
		Hypothesis:     req.Hypothesis,
		Audience:       req.Audience,
		Channels:       req.Channels,
		Description:    req.Description,
		ListSize:       req.ListSize,
		MeetingsBooked: req.MeetingsBooked,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		EstWeeklyHrs:   req.EstWeeklyHrs,
	}, partial)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(activity))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivityRequest is the payload for create and update calls. Every field is
// optional at the decoding layer; the domain service enforces requiredness per
// operation, and for PATCH absent fields stay untouched.
type ActivityRequest struct {
	Hypothesis     *string      `json:"hypothesis"`
	Audience       *string      `json:"audience"`
	Channels       *string      `json:"channels"`
	Description    *string      `json:"description"`
	ListSize       *int         `json:"list_size"`
	MeetingsBooked *int         `json:"meetings_booked"`
	StartDate      *domain.Date `json:"start_date"`
	EndDate        *domain.Date `json:"end_date"`
	EstWeeklyHrs   *float64     `json:"est_weekly_hrs"`
}

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ID             int64        `json:"id"`
	Hypothesis     string       `json:"hypothesis"`
	Audience       *string      `json:"audience"`
	Channels       *string      `json:"channels"`
	Description    *string      `json:"description"`
	ListSize       *int         `json:"list_size"`
	MeetingsBooked *int         `json:"meetings_booked"`
	StartDate      *domain.Date `json:"start_date"`
	EndDate        *domain.Date `json:"end_date"`
	EstWeeklyHrs   *float64     `json:"est_weekly_hrs"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

func toActivityView(activity *domain.Activity) ActivityView {
	return ActivityView{
		ID:             activity.ID,
		Hypothesis:     activity.Hypothesis,
		Audience:       activity.Audience,
		Channels:       activity.Channels,
		Description:    activity.Description,
		ListSize:       activity.ListSize,
		MeetingsBooked: activity.MeetingsBooked,
		StartDate:      activity.StartDate,
		EndDate:        activity.EndDate,
		EstWeeklyHrs:   activity.EstWeeklyHrs,
		CreatedAt:      activity.CreatedAt,
		UpdatedAt:      activity.UpdatedAt,
	}
}

func valueOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
