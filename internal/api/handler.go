package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/webdev-it/baza-ai/internal/history"
	"github.com/webdev-it/baza-ai/internal/quota"
	"github.com/webdev-it/baza-ai/internal/subscribers"
	"github.com/webdev-it/baza-ai/internal/usage"
)

// Handler serves the admin endpoints for inspecting and adjusting users.
type Handler struct {
	store          quota.Store
	limiter        *quota.Limiter
	burst          *quota.BurstLimiter
	subs           *subscribers.Repository
	hist           *history.Store
	events         *usage.Repository
	burstPerMinute int
	validate       *validator.Validate
}

func NewHandler(
	store quota.Store,
	limiter *quota.Limiter,
	burst *quota.BurstLimiter,
	subs *subscribers.Repository,
	hist *history.Store,
	events *usage.Repository,
	burstPerMinute int,
) *Handler {
	return &Handler{
		store:          store,
		limiter:        limiter,
		burst:          burst,
		subs:           subs,
		hist:           hist,
		events:         events,
		burstPerMinute: burstPerMinute,
		validate:       validator.New(),
	}
}

// GetUserQuota returns the user's usage for the current day.
func (h *Handler) GetUserQuota(w http.ResponseWriter, r *http.Request) {
	jid := chi.URLParam(r, "jid")
	if jid == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	now := time.Now().UTC()
	date := quota.DateKey(now)

	count, err := h.store.Get(r.Context(), jid, date)
	if err != nil {
		slog.Error("reading usage count", "error", err, "jid", jid)
		HandleError(w, ErrInternalServer)
		return
	}

	subscribed := h.subs.IsSubscribed(r.Context(), jid)
	limit := h.limiter.Limit(subscribed)

	minute, err := h.burst.MinuteUsage(r.Context(), jid)
	if err != nil {
		slog.Warn("reading burst usage", "error", err, "jid", jid)
		minute = 0
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	JSON(w, http.StatusOK, quota.Status{
		Date:              date,
		RequestsToday:     count,
		DailyLimit:        limit,
		Subscribed:        subscribed,
		BurstUsedMinute:   minute,
		BurstLimitMinute:  h.burstPerMinute,
		RemainingRequests: remaining,
	})
}

// DeleteUserHistory clears the user's in-memory conversation history.
func (h *Handler) DeleteUserHistory(w http.ResponseWriter, r *http.Request) {
	jid := chi.URLParam(r, "jid")
	if jid == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	h.hist.Reset(jid)
	JSONMessage(w, http.StatusOK, "history cleared")
}

// GetUserEvents returns the user's recent quota decisions, newest first.
func (h *Handler) GetUserEvents(w http.ResponseWriter, r *http.Request) {
	jid := chi.URLParam(r, "jid")
	if jid == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	params := usage.ListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}

	events, total, err := h.events.ListByUser(r.Context(), jid, params)
	if err != nil {
		slog.Error("listing usage events", "error", err, "jid", jid)
		HandleError(w, ErrInternalServer)
		return
	}

	JSONPaginated(w, http.StatusOK, events, total, params.Page, params.PageSize)
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

type subscriptionRequest struct {
	Subscribed *bool `json:"subscribed" validate:"required"`
}

// PutUserSubscription sets the user's subscription tier directly, bypassing
// the XMPP presence flow.
func (h *Handler) PutUserSubscription(w http.ResponseWriter, r *http.Request) {
	jid := chi.URLParam(r, "jid")
	if jid == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleError(w, ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleError(w, NewValidationError("subscribed field is required"))
		return
	}

	var err error
	if *req.Subscribed {
		err = h.subs.Add(r.Context(), jid)
	} else {
		err = h.subs.Remove(r.Context(), jid)
	}
	if err != nil {
		slog.Error("updating subscription", "error", err, "jid", jid)
		HandleError(w, ErrInternalServer)
		return
	}

	JSONMessage(w, http.StatusOK, "subscription updated")
}
