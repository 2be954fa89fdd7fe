// Package api exposes HTTP handlers for the activity rollup service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/auth"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
}

// NewHandler builds a Handler. A nil logger disables logging.
func NewHandler(service *domain.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activity/daily", h.recordDaily)
	mux.HandleFunc("/v1/activity/daily/", h.listDaily)
	mux.HandleFunc("/v1/activity/monthly/", h.listMonthly)
	mux.HandleFunc("/v1/activity/yearly/", h.listYearly)
	mux.HandleFunc("/v1/activity/weekly", h.weekly)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) recordDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.authorize(w, r, auth.CanWrite, "scope activities:write required") {
		return
	}

	var req RecordDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.Input()
	if err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.service.RecordDay(r.Context(), input)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDayResponse(result))
}

func (h *Handler) listDaily(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.readRequest(w, r, "/v1/activity/daily/")
	if !ok {
		return
	}

	records, err := h.service.ListDailyRecords(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}

	items := make([]DailyView, 0, len(records))
	for _, rec := range records {
		items = append(items, toDailyView(rec))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.readRequest(w, r, "/v1/activity/monthly/")
	if !ok {
		return
	}

	records, err := h.service.ListMonthlyRecords(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}

	items := make([]MonthlyView, 0, len(records))
	for _, rec := range records {
		items = append(items, toMonthlyView(rec))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listYearly(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.readRequest(w, r, "/v1/activity/yearly/")
	if !ok {
		return
	}

	records, err := h.service.ListYearlyRecords(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}

	items := make([]YearlyView, 0, len(records))
	for _, rec := range records {
		items = append(items, toYearlyView(rec))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) weekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.authorize(w, r, auth.CanRead, "scope activities:read required") {
		return
	}

	query := r.URL.Query()
	userID, err := parsePositive(query.Get("user_id"), "user_id")
	if err != nil {
		h.fail(w, err)
		return
	}
	year, err := parsePositive(query.Get("year"), "year")
	if err != nil {
		h.fail(w, err)
		return
	}
	month, err := parsePositive(query.Get("month"), "month")
	if err != nil {
		h.fail(w, err)
		return
	}

	buckets, err := h.service.WeeklyReport(r.Context(), userID, int(year), int(month))
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := WeeklyReportResponse{
		UserID: userID,
		Year:   int(year),
		Month:  int(month),
		Weeks:  make([]WeekView, 0, len(buckets)),
	}
	for _, b := range buckets {
		resp.Weeks = append(resp.Weeks, toWeekView(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// readRequest applies the shared checks of the list endpoints and extracts the
// user id from the path.
func (h *Handler) readRequest(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return 0, false
	}
	if !h.authorize(w, r, auth.CanRead, "scope activities:read required") {
		return 0, false
	}

	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return 0, false
	}
	userID, err := parsePositive(raw, "user_id")
	if err != nil {
		h.fail(w, err)
		return 0, false
	}
	return userID, true
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, allowed func(*auth.Claims) bool, denied string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !allowed(claims) {
		writeError(w, http.StatusForbidden, "forbidden", denied)
		return false
	}
	return true
}

// fail maps domain errors onto the JSON error body.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, domain.ErrUserRequired):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func parsePositive(raw, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &domain.ValidationError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return value, nil
}

// RecordDayRequest is the payload for POST /v1/activity/daily.
type RecordDayRequest struct {
	UserID        int64   `json:"user_id"`
	ActivityDate  string  `json:"activity_date"`
	Steps         int64   `json:"steps"`
	DistanceKM    float64 `json:"distance_km"`
	Calories      float64 `json:"calories"`
	ActiveMinutes float64 `json:"active_minutes"`
}

// Input parses the request into a domain input. Range checks are left to the
// service.
func (r RecordDayRequest) Input() (domain.RecordDayInput, error) {
	if r.UserID <= 0 {
		return domain.RecordDayInput{}, &domain.ValidationError{Field: "user_id", Reason: "must be positive"}
	}
	date, err := time.Parse(domain.DateLayout, strings.TrimSpace(r.ActivityDate))
	if err != nil {
		return domain.RecordDayInput{}, &domain.ValidationError{Field: "activity_date", Reason: "must be formatted YYYY-MM-DD"}
	}
	return domain.RecordDayInput{
		UserID:        r.UserID,
		Date:          date,
		Steps:         r.Steps,
		DistanceKM:    r.DistanceKM,
		Calories:      r.Calories,
		ActiveMinutes: r.ActiveMinutes,
	}, nil
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
