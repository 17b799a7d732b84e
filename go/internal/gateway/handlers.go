package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/config"
	"github.com/mcdev12/mailagent/go/internal/delivery/history"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/models"
	"github.com/mcdev12/mailagent/go/internal/session"
)

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 500
)

// SessionService runs conversation turns.
type SessionService interface {
	Start(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Generate(ctx context.Context, id string, in session.GenerateInput) (*session.Reply, error)
	SendNow(ctx context.Context, id, recipient string) (*session.Reply, error)
	Schedule(ctx context.Context, id, recipient string, sendAt time.Time) (*session.Reply, error)
}

// JobRegistry exposes scheduled sends known to this process.
type JobRegistry interface {
	Jobs() []models.ScheduledSend
	Job(id uuid.UUID) (models.ScheduledSend, bool)
}

// Handler serves the JSON API and the delivery websocket feed.
type Handler struct {
	sessions    SessionService
	jobs        JobRegistry
	history     history.Repository
	status      config.Status
	connections *ConnectionManager
	health      HealthChecker
}

func NewHandler(sessions SessionService, jobs JobRegistry, hist history.Repository, status config.Status, connections *ConnectionManager) *Handler {
	return &Handler{
		sessions:    sessions,
		jobs:        jobs,
		history:     hist,
		status:      status,
		connections: connections,
	}
}

// WithHealthChecker enables /health/details.
func (h *Handler) WithHealthChecker(checker HealthChecker) *Handler {
	h.health = checker
	return h
}

// RegisterRoutes registers every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.getSession)
	mux.HandleFunc("POST /api/sessions/{id}/generate", h.generate)
	mux.HandleFunc("POST /api/sessions/{id}/send", h.sendNow)
	mux.HandleFunc("POST /api/sessions/{id}/schedule", h.schedule)
	mux.HandleFunc("GET /api/schedules", h.listSchedules)
	mux.HandleFunc("GET /api/schedules/{id}", h.getSchedule)
	mux.HandleFunc("GET /api/deliveries", h.listDeliveries)
	mux.HandleFunc("GET /api/config", h.getConfig)
	mux.HandleFunc("GET /ws/deliveries", h.deliveryFeed)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
	if h.health != nil {
		mux.HandleFunc("GET /health/details", healthDetailsHandler(h.health))
	}
}

// TurnResponse is returned by generate, send and schedule. Both fields may be set when a turn
// failed but still produced an assistant message.
type TurnResponse struct {
	Reply *session.Reply `json:"reply,omitempty"`
	Error *ErrorBody     `json:"error,omitempty"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Start(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type generateRequest struct {
	Instruction string `json:"instruction"`
	Tone        string `json:"tone"`
	Language    string `json:"language"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reply, err := h.sessions.Generate(r.Context(), r.PathValue("id"), session.GenerateInput{
		Instruction: req.Instruction,
		Tone:        req.Tone,
		Language:    req.Language,
	})
	writeTurn(w, reply, err)
}

type sendRequest struct {
	Recipient string `json:"recipient"`
}

func (h *Handler) sendNow(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reply, err := h.sessions.SendNow(r.Context(), r.PathValue("id"), req.Recipient)
	writeTurn(w, reply, err)
}

type scheduleRequest struct {
	Recipient string `json:"recipient"`
	SendAt    string `json:"send_at"`
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sendAt, err := parseSendAt(req.SendAt)
	if err != nil {
		writeError(w, err)
		return
	}
	reply, err := h.sessions.Schedule(r.Context(), r.PathValue("id"), req.Recipient, sendAt)
	writeTurn(w, reply, err)
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.Jobs()
	if sid := r.URL.Query().Get("session_id"); sid != "" {
		filtered := jobs[:0]
		for _, j := range jobs {
			if j.SessionID == sid {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	writeJSON(w, http.StatusOK, map[string][]models.ScheduledSend{"schedules": jobs})
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, mailerr.Wrap(mailerr.KindInvalidInput, "gateway.schedule", "invalid schedule id", err))
		return
	}
	job, ok := h.jobs.Job(id)
	if !ok {
		writeError(w, errJobNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := defaultDeliveryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, mailerr.Errorf(mailerr.KindInvalidInput, "gateway.deliveries", "limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, maxDeliveryLimit)
	}

	outcomes, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if outcomes == nil {
		outcomes = []models.DeliveryOutcome{}
	}
	writeJSON(w, http.StatusOK, map[string][]models.DeliveryOutcome{"deliveries": outcomes})
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status)
}

func (h *Handler) deliveryFeed(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, mailerr.New(mailerr.KindInvalidInput, "gateway.ws", "session_id is required"))
		return
	}
	if _, err := h.sessions.Get(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	// Upgrade writes its own HTTP error on failure.
	if err := h.connections.UpgradeConnection(w, r, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to upgrade WebSocket connection")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, mailerr.Wrap(mailerr.KindInvalidInput, "gateway.decode", "invalid JSON body", err))
		return false
	}
	return true
}

func writeTurn(w http.ResponseWriter, reply *session.Reply, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, TurnResponse{Reply: reply})
		return
	}
	if reply == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, statusFor(err), TurnResponse{Reply: reply, Error: errorBody(err)})
}

var sendAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseSendAt accepts RFC 3339 or a zone-less local date and time.
func parseSendAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, mailerr.New(mailerr.KindInvalidInput, "gateway.schedule", "send_at is required")
	}
	for _, layout := range sendAtLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, mailerr.Errorf(mailerr.KindInvalidInput, "gateway.schedule", "send_at %q is not a valid date and time", v)
}
