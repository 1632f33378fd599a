package handler

import (
	"context"
	"time"

	"github.com/hitoshi/notibac/internal/middleware"
	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/phone"
	"github.com/hitoshi/notibac/internal/preference"
	"github.com/hitoshi/notibac/internal/reminder"
)

const (
	testUserID  = "0b9f6c1e-3a4d-4e5f-8a9b-1c2d3e4f5a6b"
	testPhoneID = "5d0c7e7a-1b2c-4d3e-9f4a-6b7c8d9e0f1a"
	testPrefID  = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
	testCalID   = "3c2b1a0f-9e8d-4c7b-a6f5-e4d3c2b1a0f9"
)

type mockUserFinder struct{}

func (mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	if id == testUserID {
		return &model.User{ID: id}, nil
	}
	return nil, nil
}

var _ middleware.UserFinder = mockUserFinder{}

type mockCalendarService struct {
	listSectorsFn     func(ctx context.Context, year int) ([]model.SectorWithCalendars, error)
	collectionDatesFn func(ctx context.Context, calendarID string) (*model.Calendar, []model.CollectionDate, error)
}

func (m *mockCalendarService) ListSectors(ctx context.Context, year int) ([]model.SectorWithCalendars, error) {
	return m.listSectorsFn(ctx, year)
}

func (m *mockCalendarService) CollectionDates(ctx context.Context, calendarID string) (*model.Calendar, []model.CollectionDate, error) {
	return m.collectionDatesFn(ctx, calendarID)
}

type mockPhoneService struct {
	listFn       func(ctx context.Context, userID string) ([]*model.PhoneNumber, error)
	addFn        func(ctx context.Context, userID, rawNumber string) (*phone.Outcome, error)
	resendFn     func(ctx context.Context, userID, phoneID string) (*phone.Outcome, error)
	verifyFn     func(ctx context.Context, userID, phoneID, code string) (*phone.Outcome, error)
	deleteFn     func(ctx context.Context, userID, phoneID string) error
	setPrimaryFn func(ctx context.Context, userID, phoneID string) (*model.PhoneNumber, error)
}

func (m *mockPhoneService) List(ctx context.Context, userID string) ([]*model.PhoneNumber, error) {
	return m.listFn(ctx, userID)
}

func (m *mockPhoneService) Add(ctx context.Context, userID, rawNumber string) (*phone.Outcome, error) {
	return m.addFn(ctx, userID, rawNumber)
}

func (m *mockPhoneService) Resend(ctx context.Context, userID, phoneID string) (*phone.Outcome, error) {
	return m.resendFn(ctx, userID, phoneID)
}

func (m *mockPhoneService) Verify(ctx context.Context, userID, phoneID, code string) (*phone.Outcome, error) {
	return m.verifyFn(ctx, userID, phoneID, code)
}

func (m *mockPhoneService) Delete(ctx context.Context, userID, phoneID string) error {
	return m.deleteFn(ctx, userID, phoneID)
}

func (m *mockPhoneService) SetPrimary(ctx context.Context, userID, phoneID string) (*model.PhoneNumber, error) {
	return m.setPrimaryFn(ctx, userID, phoneID)
}

type mockPreferenceService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.NotificationPreference, error)
	createFn func(ctx context.Context, userID string, in preference.Input) (*model.NotificationPreference, error)
	updateFn func(ctx context.Context, userID, prefID string, in preference.Input) (*model.NotificationPreference, error)
	toggleFn func(ctx context.Context, userID, prefID string) (*model.NotificationPreference, error)
	deleteFn func(ctx context.Context, userID, prefID string) error
}

func (m *mockPreferenceService) List(ctx context.Context, userID string) ([]*model.NotificationPreference, error) {
	return m.listFn(ctx, userID)
}

func (m *mockPreferenceService) Create(ctx context.Context, userID string, in preference.Input) (*model.NotificationPreference, error) {
	return m.createFn(ctx, userID, in)
}

func (m *mockPreferenceService) Update(ctx context.Context, userID, prefID string, in preference.Input) (*model.NotificationPreference, error) {
	return m.updateFn(ctx, userID, prefID, in)
}

func (m *mockPreferenceService) Toggle(ctx context.Context, userID, prefID string) (*model.NotificationPreference, error) {
	return m.toggleFn(ctx, userID, prefID)
}

func (m *mockPreferenceService) Delete(ctx context.Context, userID, prefID string) error {
	return m.deleteFn(ctx, userID, prefID)
}

type mockReminderService struct {
	upcomingFn func(ctx context.Context, userID, prefID string, from time.Time, limit int) ([]reminder.Reminder, error)
}

func (m *mockReminderService) Upcoming(ctx context.Context, userID, prefID string, from time.Time, limit int) ([]reminder.Reminder, error) {
	return m.upcomingFn(ctx, userID, prefID, from, limit)
}

type mockHealthChecker struct {
	err error
}

func (m mockHealthChecker) PingContext(ctx context.Context) error { return m.err }
