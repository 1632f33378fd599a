package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/notibac/internal/middleware"
	"github.com/hitoshi/notibac/internal/model"
)

// CalendarServiceInterface はカレンダーハンドラーが必要とするサービスインターフェース。
type CalendarServiceInterface interface {
	// ListSectors はセクターを所属カレンダー付きで返す。yearが0の場合は全年度。
	ListSectors(ctx context.Context, year int) ([]model.SectorWithCalendars, error)
	// CollectionDates はカレンダーとその収集日を返す。
	CollectionDates(ctx context.Context, calendarID string) (*model.Calendar, []model.CollectionDate, error)
}

// CalendarHandler はセクター・カレンダー参照のHTTPハンドラー。
type CalendarHandler struct {
	service CalendarServiceInterface
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(service CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{service: service}
}

type calendarResponse struct {
	ID         string `json:"id"`
	SectorID   string `json:"sector_id"`
	Year       int    `json:"year"`
	HasCompost bool   `json:"has_compost"`
}

type sectorResponse struct {
	ID        string             `json:"id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	Calendars []calendarResponse `json:"calendars"`
}

type collectionDateResponse struct {
	CollectionType model.CollectionType `json:"collection_type"`
	Label          string               `json:"label"`
	Date           string               `json:"date"`
}

type calendarDatesResponse struct {
	Calendar calendarResponse         `json:"calendar"`
	Dates    []collectionDateResponse `json:"dates"`
}

func toCalendarResponse(c model.Calendar) calendarResponse {
	return calendarResponse{
		ID:         c.ID,
		SectorID:   c.SectorID,
		Year:       c.Year,
		HasCompost: c.HasCompost,
	}
}

// ListSectors はセクター一覧を取得する。
// GET /api/sectors?year=2026
func (h *CalendarHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("année invalide"))
			return
		}
		year = n
	}

	sectors, err := h.service.ListSectors(r.Context(), year)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]sectorResponse, 0, len(sectors))
	for _, s := range sectors {
		cals := make([]calendarResponse, 0, len(s.Calendars))
		for _, c := range s.Calendars {
			cals = append(cals, toCalendarResponse(c))
		}
		resp = append(resp, sectorResponse{
			ID:        s.ID,
			Code:      s.Code,
			Name:      s.Name,
			Calendars: cals,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// CollectionDates はカレンダーの収集日一覧を取得する。
// GET /api/calendars/{id}/dates
func (h *CalendarHandler) CollectionDates(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, model.NewCalendarNotFoundError)
	if !ok {
		return
	}

	cal, dates, err := h.service.CollectionDates(r.Context(), calendarID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := calendarDatesResponse{
		Calendar: toCalendarResponse(*cal),
		Dates:    make([]collectionDateResponse, 0, len(dates)),
	}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, collectionDateResponse{
			CollectionType: d.CollectionType,
			Label:          d.CollectionType.DisplayName(),
			Date:           d.Date.Format(time.DateOnly),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
