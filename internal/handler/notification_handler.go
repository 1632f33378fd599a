package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/notibac/internal/middleware"
	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/preference"
	"github.com/hitoshi/notibac/internal/reminder"
)

const (
	// defaultReminderLimit は通知予定一覧の既定件数。
	defaultReminderLimit = 10
	// maxReminderLimit は通知予定一覧の最大件数。
	maxReminderLimit = 100
)

// PreferenceServiceInterface は通知設定ハンドラーが必要とするサービスインターフェース。
type PreferenceServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.NotificationPreference, error)
	Create(ctx context.Context, userID string, in preference.Input) (*model.NotificationPreference, error)
	Update(ctx context.Context, userID, prefID string, in preference.Input) (*model.NotificationPreference, error)
	Toggle(ctx context.Context, userID, prefID string) (*model.NotificationPreference, error)
	Delete(ctx context.Context, userID, prefID string) error
}

// ReminderServiceInterface は通知予定の参照に必要なサービスインターフェース。
type ReminderServiceInterface interface {
	Upcoming(ctx context.Context, userID, prefID string, from time.Time, limit int) ([]reminder.Reminder, error)
}

var (
	_ PreferenceServiceInterface = (*preference.Service)(nil)
	_ ReminderServiceInterface   = (*reminder.Service)(nil)
)

// NotificationHandler は通知設定のHTTPハンドラー。
type NotificationHandler struct {
	service   PreferenceServiceInterface
	reminders ReminderServiceInterface
	now       func() time.Time
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service PreferenceServiceInterface, reminders ReminderServiceInterface) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		reminders: reminders,
		now:       time.Now,
	}
}

// preferenceResponse は通知設定のAPIレスポンス。
type preferenceResponse struct {
	ID                   string       `json:"id"`
	CalendarID           string       `json:"calendar_id"`
	PhoneNumberID        string       `json:"phone_number_id"`
	Timing               model.Timing `json:"timing"`
	NotificationTime     string       `json:"notification_time"`
	NotifyGarbage        bool         `json:"notify_garbage"`
	NotifyRecycling      bool         `json:"notify_recycling"`
	NotifyCompost        bool         `json:"notify_compost"`
	NotifyYardWaste      bool         `json:"notify_yard_waste"`
	NotifyChristmasTrees bool         `json:"notify_christmas_trees"`
	NotifyBulkyWaste     bool         `json:"notify_bulky_waste"`
	IsActive             bool         `json:"is_active"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

func toPreferenceResponse(p *model.NotificationPreference) preferenceResponse {
	return preferenceResponse{
		ID:                   p.ID,
		CalendarID:           p.CalendarID,
		PhoneNumberID:        p.PhoneNumberID,
		Timing:               p.Timing,
		NotificationTime:     p.NotificationTime.String(),
		NotifyGarbage:        p.NotifyGarbage,
		NotifyRecycling:      p.NotifyRecycling,
		NotifyCompost:        p.NotifyCompost,
		NotifyYardWaste:      p.NotifyYardWaste,
		NotifyChristmasTrees: p.NotifyChristmasTrees,
		NotifyBulkyWaste:     p.NotifyBulkyWaste,
		IsActive:             p.IsActive,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// List はユーザーの通知設定一覧を取得する。
// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]preferenceResponse, 0, len(prefs))
	for _, p := range prefs {
		resp = append(resp, toPreferenceResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は通知設定を作成する。
// POST /api/notifications
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in preference.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	pref, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPreferenceResponse(pref))
}

// Update は通知設定を更新する。
// PUT /api/notifications/{id}
func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	prefID, ok := pathID(w, r, model.NewPreferenceNotFoundError)
	if !ok {
		return
	}

	var in preference.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	pref, err := h.service.Update(r.Context(), userID, prefID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferenceResponse(pref))
}

// Toggle は通知設定の有効・無効を切り替える。
// POST /api/notifications/{id}/toggle
func (h *NotificationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	prefID, ok := pathID(w, r, model.NewPreferenceNotFoundError)
	if !ok {
		return
	}

	pref, err := h.service.Toggle(r.Context(), userID, prefID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferenceResponse(pref))
}

// Delete は通知設定を削除する。
// DELETE /api/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	prefID, ok := pathID(w, r, model.NewPreferenceNotFoundError)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, prefID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reminders は通知設定の今後の通知予定を返す。
// GET /api/notifications/{id}/reminders?from=RFC3339&limit=10
func (h *NotificationHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	prefID, ok := pathID(w, r, model.NewPreferenceNotFoundError)
	if !ok {
		return
	}

	q := r.URL.Query()
	from := h.now()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("date de début invalide"))
			return
		}
		from = t
	}
	limit := defaultReminderLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxReminderLimit {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limite invalide"))
			return
		}
		limit = n
	}

	reminders, err := h.reminders.Upcoming(r.Context(), userID, prefID, from, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []reminder.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}
