package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hitoshi/notibac/internal/middleware"
	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/phone"
	"github.com/hitoshi/notibac/internal/preference"
	"github.com/hitoshi/notibac/internal/reminder"
)

type testRouter struct {
	handler   http.Handler
	calendars *mockCalendarService
	phones    *mockPhoneService
	prefs     *mockPreferenceService
	reminders *mockReminderService
	health    *mockHealthChecker
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	tr := &testRouter{
		calendars: &mockCalendarService{},
		phones:    &mockPhoneService{},
		prefs:     &mockPreferenceService{},
		reminders: &mockReminderService{},
		health:    &mockHealthChecker{},
	}
	tr.handler = NewRouter(&RouterDeps{
		HealthChecker:     tr.health,
		MetricsHandler:    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "# metrics") }),
		UserFinder:        mockUserFinder{},
		CORSAllowedOrigin: "https://notibac.ca",
		RateLimiter:       rl,
		CalendarService:   tr.calendars,
		PhoneService:      tr.phones,
		PreferenceService: tr.prefs,
		ReminderService:   tr.reminders,
	})
	return tr
}

func (tr *testRouter) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("failed to marshal body: %v", err)
			}
			reader = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(middleware.UserIDHeader, testUserID)
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v (raw %q)", err, w.Body.String())
	}
	return body
}

func TestRouter_Health(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}

	tr.health.err = errors.New("connection refused")
	w = httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_MetricsWithoutUser(t *testing.T) {
	tr := newTestRouter(t)
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_RequiresUser(t *testing.T) {
	tr := newTestRouter(t)

	for _, header := range []string{"", "11111111-2222-3333-4444-555555555555"} {
		req := httptest.NewRequest(http.MethodGet, "/api/phones", nil)
		if header != "" {
			req.Header.Set(middleware.UserIDHeader, header)
		}
		w := httptest.NewRecorder()
		tr.handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodGet, "/api/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := decodeError(t, w).Code; got != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeNotFound)
	}
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	tr := newTestRouter(t)
	tr.phones.listFn = func(ctx context.Context, userID string) ([]*model.PhoneNumber, error) {
		return nil, nil
	}

	w := tr.do(t, http.MethodGet, "/api/phones", nil)
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://notibac.ca" {
		t.Errorf("Allow-Origin = %q, want https://notibac.ca", got)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestRouter_ListSectors(t *testing.T) {
	tr := newTestRouter(t)
	var gotYear int
	tr.calendars.listSectorsFn = func(ctx context.Context, year int) ([]model.SectorWithCalendars, error) {
		gotYear = year
		return []model.SectorWithCalendars{{
			Sector:    model.Sector{ID: "s1", Code: "14a", Name: "Secteur 14a"},
			Calendars: []model.Calendar{{ID: testCalID, SectorID: "s1", Year: 2026, HasCompost: true}},
		}}, nil
	}

	w := tr.do(t, http.MethodGet, "/api/sectors?year=2026", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotYear != 2026 {
		t.Errorf("year = %d, want 2026", gotYear)
	}

	var got []sectorResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := []sectorResponse{{
		ID: "s1", Code: "14a", Name: "Secteur 14a",
		Calendars: []calendarResponse{{ID: testCalID, SectorID: "s1", Year: 2026, HasCompost: true}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sectors mismatch (-want +got):\n%s", diff)
	}

	if w := tr.do(t, http.MethodGet, "/api/sectors?year=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid year: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRouter_CollectionDates(t *testing.T) {
	tr := newTestRouter(t)
	tr.calendars.collectionDatesFn = func(ctx context.Context, calendarID string) (*model.Calendar, []model.CollectionDate, error) {
		if calendarID != testCalID {
			return nil, nil, model.NewCalendarNotFoundError(calendarID)
		}
		return &model.Calendar{ID: testCalID, Year: 2026}, []model.CollectionDate{
			{CollectionType: model.CollectionGarbage, Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		}, nil
	}

	w := tr.do(t, http.MethodGet, "/api/calendars/"+testCalID+"/dates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got calendarDatesResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	wantDates := []collectionDateResponse{{CollectionType: model.CollectionGarbage, Label: "Déchets", Date: "2026-03-10"}}
	if diff := cmp.Diff(wantDates, got.Dates); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}

	if w := tr.do(t, http.MethodGet, "/api/calendars/not-a-uuid/dates", nil); w.Code != http.StatusNotFound {
		t.Errorf("malformed id: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	other := "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	w = tr.do(t, http.MethodGet, "/api/calendars/"+other+"/dates", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := decodeError(t, w).Code; got != model.ErrCodeCalendarNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeCalendarNotFound)
	}
}

func TestRouter_AddPhone(t *testing.T) {
	tr := newTestRouter(t)
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	tr.phones.addFn = func(ctx context.Context, userID, rawNumber string) (*phone.Outcome, error) {
		if userID != testUserID {
			t.Errorf("userID = %q, want %q", userID, testUserID)
		}
		if rawNumber == "123" {
			return nil, model.NewInvalidPhoneNumberError()
		}
		return &phone.Outcome{
			Phone: &model.PhoneNumber{
				ID: testPhoneID, UserID: userID, PhoneNumber: "+15145551234", IsPrimary: true,
				VerificationCode: &code, CodeSentAt: &sentAt, CreatedAt: sentAt,
			},
			SMSSent: false,
			Message: "Le numéro a été ajouté, mais l'envoi du SMS a échoué. Demandez un nouveau code.",
		}, nil
	}

	w := tr.do(t, http.MethodPost, "/api/phones", addPhoneRequest{PhoneNumber: "514-555-1234"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if bytes.Contains(w.Body.Bytes(), []byte(code)) {
		t.Errorf("response leaks verification code: %s", w.Body.String())
	}
	var got outcomeResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.SMSSent || !got.Phone.HasPendingCode || !got.Phone.IsPrimary {
		t.Errorf("outcome = %+v, want pending primary phone with sms_sent=false", got)
	}

	if w := tr.do(t, http.MethodPost, "/api/phones", addPhoneRequest{PhoneNumber: "123"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid number: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := tr.do(t, http.MethodPost, "/api/phones", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := tr.do(t, http.MethodPost, "/api/phones", `{"phone":"5145551234"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRouter_PhoneErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"期限切れ", model.NewCodeExpiredError(), http.StatusGone, model.ErrCodeCodeExpired},
		{"コード不一致", model.NewInvalidCodeError(), http.StatusBadRequest, model.ErrCodeInvalidCode},
		{"未発行", model.NewNoCodePendingError(), http.StatusConflict, model.ErrCodeNoCodePending},
		{"他ユーザーの番号", model.NewPhoneNotFoundError(testPhoneID), http.StatusNotFound, model.ErrCodePhoneNotFound},
		{"内部エラー", errors.New("db down"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.phones.verifyFn = func(ctx context.Context, userID, phoneID, code string) (*phone.Outcome, error) {
				return nil, tt.err
			}

			w := tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/verify", verifyRequest{Code: "000000"})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeError(t, w).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestRouter_VerifyPhone(t *testing.T) {
	tr := newTestRouter(t)
	var gotCode, gotPhone string
	tr.phones.verifyFn = func(ctx context.Context, userID, phoneID, code string) (*phone.Outcome, error) {
		gotCode, gotPhone = code, phoneID
		return &phone.Outcome{
			Phone:   &model.PhoneNumber{ID: phoneID, PhoneNumber: "+15145551234", IsVerified: true},
			Message: "Numéro vérifié.",
		}, nil
	}

	w := tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/verify", verifyRequest{Code: "654321"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCode != "654321" || gotPhone != testPhoneID {
		t.Errorf("Verify called with (%q, %q)", gotPhone, gotCode)
	}

	// 前後の空白は境界で除去される
	w = tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/verify", verifyRequest{Code: " 654321\n"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCode != "654321" {
		t.Errorf("Verify called with code %q, want trimmed 654321", gotCode)
	}
}

func TestRouter_ResendCooldown(t *testing.T) {
	tr := newTestRouter(t)
	tr.phones.resendFn = func(ctx context.Context, userID, phoneID string) (*phone.Outcome, error) {
		return nil, model.NewResendCooldownError(37)
	}

	w := tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/resend", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "37" {
		t.Errorf("Retry-After = %q, want 37", got)
	}
	if got := decodeError(t, w); got.Code != model.ErrCodeResendCooldown || got.RetryAfter != 37 {
		t.Errorf("body = %+v", got)
	}
}

func TestRouter_VerificationRateLimit(t *testing.T) {
	tr := newTestRouter(t)
	tr.phones.verifyFn = func(ctx context.Context, userID, phoneID, code string) (*phone.Outcome, error) {
		return nil, model.NewInvalidCodeError()
	}

	// 既定では1分あたり5回まで
	for i := range 5 {
		if w := tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/verify", verifyRequest{Code: "000000"}); w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status = %d, want %d", i, w.Code, http.StatusBadRequest)
		}
	}
	w := tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/verify", verifyRequest{Code: "000000"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := decodeError(t, w).Code; got != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", got, model.ErrCodeRateLimited)
	}
}

func TestRouter_DeleteAndSetPrimary(t *testing.T) {
	tr := newTestRouter(t)
	var deleted string
	tr.phones.deleteFn = func(ctx context.Context, userID, phoneID string) error {
		deleted = phoneID
		return nil
	}
	tr.phones.setPrimaryFn = func(ctx context.Context, userID, phoneID string) (*model.PhoneNumber, error) {
		return &model.PhoneNumber{ID: phoneID, IsPrimary: true}, nil
	}

	if w := tr.do(t, http.MethodDelete, "/api/phones/"+testPhoneID, nil); w.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != testPhoneID {
		t.Errorf("deleted = %q, want %q", deleted, testPhoneID)
	}

	w := tr.do(t, http.MethodPost, "/api/phones/"+testPhoneID+"/primary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("primary status = %d, want %d", w.Code, http.StatusOK)
	}
	var got phoneResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !got.IsPrimary {
		t.Error("is_primary = false, want true")
	}

	if w := tr.do(t, http.MethodDelete, "/api/phones/abc", nil); w.Code != http.StatusNotFound {
		t.Errorf("malformed id: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRouter_CreateNotification(t *testing.T) {
	tr := newTestRouter(t)
	var gotInput preference.Input
	tr.prefs.createFn = func(ctx context.Context, userID string, in preference.Input) (*model.NotificationPreference, error) {
		gotInput = in
		if in.PhoneNumberID != testPhoneID {
			return nil, model.NewPhoneNotVerifiedError()
		}
		p := model.NewNotificationPreference(userID, in.CalendarID, in.PhoneNumberID)
		p.ID = testPrefID
		return p, nil
	}

	body := map[string]any{
		"calendar_id":     testCalID,
		"phone_number_id": testPhoneID,
		"notify_compost":  false,
	}
	w := tr.do(t, http.MethodPost, "/api/notifications", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	if gotInput.NotifyCompost == nil || *gotInput.NotifyCompost {
		t.Errorf("notify_compost not passed through: %+v", gotInput.NotifyCompost)
	}
	var got preferenceResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.NotificationTime != "18:00" || got.Timing != model.TimingDayBefore {
		t.Errorf("defaults = (%s, %s), want (18:00, day_before)", got.NotificationTime, got.Timing)
	}

	body["phone_number_id"] = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	if w := tr.do(t, http.MethodPost, "/api/notifications", body); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("unverified phone: status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestRouter_NotificationLifecycle(t *testing.T) {
	tr := newTestRouter(t)
	pref := model.NewNotificationPreference(testUserID, testCalID, testPhoneID)
	pref.ID = testPrefID

	tr.prefs.listFn = func(ctx context.Context, userID string) ([]*model.NotificationPreference, error) {
		return []*model.NotificationPreference{pref}, nil
	}
	tr.prefs.updateFn = func(ctx context.Context, userID, prefID string, in preference.Input) (*model.NotificationPreference, error) {
		if in.NotificationTime == "25:00" {
			return nil, model.NewInvalidTimeError(in.NotificationTime)
		}
		return pref, nil
	}
	tr.prefs.toggleFn = func(ctx context.Context, userID, prefID string) (*model.NotificationPreference, error) {
		pref.IsActive = !pref.IsActive
		return pref, nil
	}
	tr.prefs.deleteFn = func(ctx context.Context, userID, prefID string) error {
		return model.NewPreferenceNotFoundError(prefID)
	}

	if w := tr.do(t, http.MethodGet, "/api/notifications", nil); w.Code != http.StatusOK {
		t.Errorf("list status = %d", w.Code)
	}

	update := map[string]any{"calendar_id": testCalID, "phone_number_id": testPhoneID, "notification_time": "25:00"}
	w := tr.do(t, http.MethodPut, "/api/notifications/"+testPrefID, update)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid time: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, w).Code; got != model.ErrCodeInvalidTime {
		t.Errorf("code = %q, want %q", got, model.ErrCodeInvalidTime)
	}

	w = tr.do(t, http.MethodPost, "/api/notifications/"+testPrefID+"/toggle", nil)
	var toggled preferenceResponse
	if err := json.NewDecoder(w.Body).Decode(&toggled); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if toggled.IsActive {
		t.Error("is_active = true after toggle, want false")
	}

	if w := tr.do(t, http.MethodDelete, "/api/notifications/"+testPrefID, nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRouter_Reminders(t *testing.T) {
	tr := newTestRouter(t)
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	var gotFrom time.Time
	var gotLimit int
	tr.reminders.upcomingFn = func(ctx context.Context, userID, prefID string, from time.Time, limit int) ([]reminder.Reminder, error) {
		gotFrom, gotLimit = from, limit
		return []reminder.Reminder{{
			CollectionType: model.CollectionGarbage,
			CollectionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			At:             time.Date(2026, 3, 9, 18, 0, 0, 0, toronto),
		}}, nil
	}

	w := tr.do(t, http.MethodGet, "/api/notifications/"+testPrefID+"/reminders?from=2026-03-01T00:00:00Z&limit=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	if !gotFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || gotLimit != 3 {
		t.Errorf("Upcoming called with from=%v limit=%d", gotFrom, gotLimit)
	}
	var got []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(got) != 1 || got[0]["at"] != "2026-03-09T18:00:00-04:00" {
		t.Errorf("reminders = %v", got)
	}

	for _, q := range []string{"?limit=0", "?limit=1000", "?from=yesterday"} {
		if w := tr.do(t, http.MethodGet, "/api/notifications/"+testPrefID+"/reminders"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", q, w.Code, http.StatusBadRequest)
		}
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewPhoneLimitError(3), http.StatusConflict},
		{model.NewDuplicatePhoneError(), http.StatusConflict},
		{model.NewPreferenceLimitError(5), http.StatusConflict},
		{model.NewAlreadyVerifiedError(), http.StatusConflict},
		{model.NewValidationError([]string{"calendar_id"}), http.StatusBadRequest},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewRateLimitError(1), http.StatusTooManyRequests},
		{model.NewInternalError(), http.StatusInternalServerError},
		{&model.APIError{Code: "SMS_FAILED", Category: model.CategoryExternalService}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
			}
		})
	}
}
