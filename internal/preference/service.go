package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/repository"
)

// MaxPreferencesPerUser はユーザーが作成できる通知設定の上限。
const MaxPreferencesPerUser = 5

// Service は通知設定のサービス層。
// 電話番号の所有・検証済みの確認は書き込み時にのみ行う。
type Service struct {
	prefRepo     repository.PreferenceRepository
	phoneRepo    repository.PhoneRepository
	calendarRepo repository.CalendarRepository
	logger       *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	prefRepo repository.PreferenceRepository,
	phoneRepo repository.PhoneRepository,
	calendarRepo repository.CalendarRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		prefRepo:     prefRepo,
		phoneRepo:    phoneRepo,
		calendarRepo: calendarRepo,
		logger:       logger,
	}
}

// List はユーザーの通知設定を新しい順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.NotificationPreference, error) {
	prefs, err := s.prefRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("通知設定一覧の取得に失敗しました: %w", err)
	}
	return prefs, nil
}

// Get はユーザーの通知設定を1件返す。他ユーザーの設定はPREFERENCE_NOT_FOUNDになる。
func (s *Service) Get(ctx context.Context, userID, prefID string) (*model.NotificationPreference, error) {
	pref, err := s.prefRepo.FindByID(ctx, prefID)
	if err != nil {
		return nil, fmt.Errorf("通知設定の取得に失敗しました: %w", err)
	}
	if pref == nil || pref.UserID != userID {
		return nil, model.NewPreferenceNotFoundError(prefID)
	}
	return pref, nil
}

// Create は通知設定を作成する。未指定の項目はデフォルト値（前日 18:00、全種別有効）になる。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.NotificationPreference, error) {
	// 1. 入力検証
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// 2. 参照先の確認
	if err := s.checkReferences(ctx, userID, in); err != nil {
		return nil, err
	}

	// 3. 作成（上限はリポジトリがユーザー単位のロック内で確認）
	pref := model.NewNotificationPreference(userID, in.CalendarID, in.PhoneNumberID)
	in.apply(pref)
	if err := s.prefRepo.Create(ctx, pref, MaxPreferencesPerUser); err != nil {
		switch {
		case errors.Is(err, repository.ErrPreferenceLimitExceeded):
			return nil, model.NewPreferenceLimitError(MaxPreferencesPerUser)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("通知設定の作成に失敗しました: %w", err)
	}

	s.logger.Info("notification preference created",
		slog.String("user_id", userID),
		slog.String("preference_id", pref.ID),
	)
	return pref, nil
}

// Update は通知設定を更新する。未指定の項目は現在値を維持する。
func (s *Service) Update(ctx context.Context, userID, prefID string, in Input) (*model.NotificationPreference, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pref, err := s.Get(ctx, userID, prefID)
	if err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, userID, in); err != nil {
		return nil, err
	}

	in.apply(pref)
	if err := s.save(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

// Toggle は通知設定の有効・無効を切り替える。
func (s *Service) Toggle(ctx context.Context, userID, prefID string) (*model.NotificationPreference, error) {
	pref, err := s.Get(ctx, userID, prefID)
	if err != nil {
		return nil, err
	}

	pref.IsActive = !pref.IsActive
	if err := s.save(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

// Delete はユーザーの通知設定を削除する。
func (s *Service) Delete(ctx context.Context, userID, prefID string) error {
	if err := s.prefRepo.Delete(ctx, userID, prefID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPreferenceNotFoundError(prefID)
		}
		return fmt.Errorf("通知設定の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, pref *model.NotificationPreference) error {
	if err := s.prefRepo.Update(ctx, pref); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPreferenceNotFoundError(pref.ID)
		}
		return fmt.Errorf("通知設定の更新に失敗しました: %w", err)
	}
	return nil
}

// checkReferences はカレンダーの存在と、電話番号が本人所有かつ検証済みであることを確認する。
func (s *Service) checkReferences(ctx context.Context, userID string, in Input) error {
	cal, err := s.calendarRepo.FindCalendarByID(ctx, in.CalendarID)
	if err != nil {
		return fmt.Errorf("カレンダーの取得に失敗しました: %w", err)
	}
	if cal == nil {
		return model.NewCalendarNotFoundError(in.CalendarID)
	}

	phone, err := s.phoneRepo.FindByID(ctx, in.PhoneNumberID)
	if err != nil {
		return fmt.Errorf("電話番号の取得に失敗しました: %w", err)
	}
	if phone == nil || phone.UserID != userID {
		return model.NewPhoneNotFoundError(in.PhoneNumberID)
	}
	if !phone.IsVerified {
		return model.NewPhoneNotVerifiedError()
	}
	return nil
}
