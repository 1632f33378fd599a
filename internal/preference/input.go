// Package preference は通知設定の作成・更新・削除のドメインロジックを提供する。
package preference

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/notibac/internal/model"
)

// clockPattern は HH:MM（24時間制）に一致する。
var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Input は通知設定の作成・更新リクエストを表す。
// ポインタのフィールドは未指定（nil）の場合、作成時はデフォルト値、更新時は現在値を使う。
type Input struct {
	CalendarID           string `json:"calendar_id" validate:"required,uuid"`
	PhoneNumberID        string `json:"phone_number_id" validate:"required,uuid"`
	Timing               string `json:"timing" validate:"omitempty,oneof=day_before day_of"`
	NotificationTime     string `json:"notification_time" validate:"omitempty,clock"`
	NotifyGarbage        *bool  `json:"notify_garbage"`
	NotifyRecycling      *bool  `json:"notify_recycling"`
	NotifyCompost        *bool  `json:"notify_compost"`
	NotifyYardWaste      *bool  `json:"notify_yard_waste"`
	NotifyChristmasTrees *bool  `json:"notify_christmas_trees"`
	NotifyBulkyWaste     *bool  `json:"notify_bulky_waste"`
	IsActive             *bool  `json:"is_active"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate は入力を検証する。通知時刻の書式不正はINVALID_TIME、
// それ以外の違反はINVALID_REQUEST（validationカテゴリ）として違反フィールド名を返す。
func (in *Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewInvalidRequestError(err.Error())
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "clock" {
			return model.NewInvalidTimeError(in.NotificationTime)
		}
		fields = append(fields, fe.Field())
	}
	return model.NewValidationError(fields)
}

// ParseTime は HH:MM をTimeOfDayに変換する。書式が不正な場合はINVALID_TIMEを返す。
func ParseTime(s string) (model.TimeOfDay, error) {
	if !clockPattern.MatchString(s) {
		return model.TimeOfDay{}, model.NewInvalidTimeError(s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return model.TimeOfDay{Hour: h, Minute: m}, nil
}

// apply は入力のうち指定された値を通知設定に反映する。Validate済みであること。
func (in *Input) apply(p *model.NotificationPreference) {
	p.CalendarID = in.CalendarID
	p.PhoneNumberID = in.PhoneNumberID
	if in.Timing != "" {
		p.Timing = model.Timing(in.Timing)
	}
	if in.NotificationTime != "" {
		if t, err := ParseTime(in.NotificationTime); err == nil {
			p.NotificationTime = t
		}
	}

	toggles := []struct {
		src *bool
		dst *bool
	}{
		{in.NotifyGarbage, &p.NotifyGarbage},
		{in.NotifyRecycling, &p.NotifyRecycling},
		{in.NotifyCompost, &p.NotifyCompost},
		{in.NotifyYardWaste, &p.NotifyYardWaste},
		{in.NotifyChristmasTrees, &p.NotifyChristmasTrees},
		{in.NotifyBulkyWaste, &p.NotifyBulkyWaste},
		{in.IsActive, &p.IsActive},
	}
	for _, t := range toggles {
		if t.src != nil {
			*t.dst = *t.src
		}
	}
}
