package audit

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"payguard/internal/event"
	"payguard/pkg/middleware"
	"payguard/pkg/response"
)

type Handler struct {
	recorder  *Recorder
	publisher event.Publisher
}

func NewHandler(recorder *Recorder, publisher event.Publisher) *Handler {
	return &Handler{recorder: recorder, publisher: publisher}
}

const dateLayout = "2006-01-02"

// List serves GET /audit with the filtered, paginated trail for the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	q := Query{
		Page:      intParam(r, "page", 1),
		PageSize:  intParam(r, "pageSize", 10),
		EventType: r.URL.Query().Get("eventType"),
		Details:   r.URL.Query().Get("details"),
	}

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid startDate")
			return
		}
		q.StartDate = &start
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid endDate")
			return
		}
		// Inclusive: push to the last instant of that day.
		eod := end.Add(24*time.Hour - time.Nanosecond)
		q.EndDate = &eod
	}

	page, err := h.recorder.List(r.Context(), userID, q)
	if err != nil {
		log.Printf("List audit logs error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response.JSON(w, http.StatusOK, page)
}

type recentFraudResult struct {
	HasRecentFraud bool         `json:"hasRecentFraud"`
	Alert          *AuditRecord `json:"alert,omitempty"`
}

// RecentFraud serves GET /audit/recent-fraud.
func (h *Handler) RecentFraud(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	alert, err := h.recorder.RecentFraud(r.Context(), userID)
	if err != nil {
		log.Printf("RecentFraud error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response.JSON(w, http.StatusOK, recentFraudResult{
		HasRecentFraud: alert != nil,
		Alert:          alert,
	})
}

type clientEventBody struct {
	Action    string `json:"action"`
	Reference string `json:"reference"`
}

// LogClientEvent serves POST /audit/log: client-reported actions (payslip
// downloads, payroll exports) enter the same stream as everything else.
func (h *Handler) LogClientEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body clientEventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Action == "" {
		response.Error(w, http.StatusBadRequest, "Action is required.")
		return
	}

	ev := &event.Event{
		EventType: body.Action,
		UserID:    userID,
		Reference: body.Reference,
		Timestamp: time.Now().UTC(),
	}
	if err := h.publisher.Publish(r.Context(), event.TopicAuditLogs, ev); err != nil {
		log.Printf("LogClientEvent publish failed for %s: %v", userID, err)
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
