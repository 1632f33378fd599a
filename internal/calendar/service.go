package calendar

import (
	"context"
	"fmt"

	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/repository"
)

// Service はセクター・カレンダーの参照系ロジックを提供する。
type Service struct {
	repo repository.CalendarRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.CalendarRepository) *Service {
	return &Service{repo: repo}
}

// ListSectors はセクターをカレンダー付きで返す。yearが0の場合は全年度を含める。
func (s *Service) ListSectors(ctx context.Context, year int) ([]model.SectorWithCalendars, error) {
	sectors, err := s.repo.ListSectorsWithCalendars(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("セクター一覧の取得に失敗しました: %w", err)
	}
	return sectors, nil
}

// CollectionDates はカレンダーの収集日を返す。カレンダーが存在しない場合はCALENDAR_NOT_FOUND。
func (s *Service) CollectionDates(ctx context.Context, calendarID string) (*model.Calendar, []model.CollectionDate, error) {
	cal, err := s.repo.FindCalendarByID(ctx, calendarID)
	if err != nil {
		return nil, nil, fmt.Errorf("カレンダーの取得に失敗しました: %w", err)
	}
	if cal == nil {
		return nil, nil, model.NewCalendarNotFoundError(calendarID)
	}

	dates, err := s.repo.ListCollectionDates(ctx, calendarID)
	if err != nil {
		return nil, nil, fmt.Errorf("収集日の取得に失敗しました: %w", err)
	}
	return cal, dates, nil
}
