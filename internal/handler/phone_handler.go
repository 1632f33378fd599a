package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/phone"
)

// PhoneServiceInterface は電話番号ハンドラーが必要とするサービスインターフェース。
type PhoneServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.PhoneNumber, error)
	Add(ctx context.Context, userID, rawNumber string) (*phone.Outcome, error)
	Resend(ctx context.Context, userID, phoneID string) (*phone.Outcome, error)
	Verify(ctx context.Context, userID, phoneID, code string) (*phone.Outcome, error)
	Delete(ctx context.Context, userID, phoneID string) error
	SetPrimary(ctx context.Context, userID, phoneID string) (*model.PhoneNumber, error)
}

var _ PhoneServiceInterface = (*phone.Service)(nil)

// PhoneHandler は電話番号管理と検証のHTTPハンドラー。
type PhoneHandler struct {
	service PhoneServiceInterface
}

// NewPhoneHandler はPhoneHandlerを生成する。
func NewPhoneHandler(service PhoneServiceInterface) *PhoneHandler {
	return &PhoneHandler{service: service}
}

// phoneResponse は電話番号のAPIレスポンス。検証コードは含めない。
type phoneResponse struct {
	ID             string     `json:"id"`
	PhoneNumber    string     `json:"phone_number"`
	IsPrimary      bool       `json:"is_primary"`
	IsVerified     bool       `json:"is_verified"`
	HasPendingCode bool       `json:"has_pending_code"`
	CodeSentAt     *time.Time `json:"code_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// outcomeResponse は登録・再送・検証の結果レスポンス。
type outcomeResponse struct {
	Phone   phoneResponse `json:"phone"`
	SMSSent bool          `json:"sms_sent"`
	Message string        `json:"message"`
}

type addPhoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

func toPhoneResponse(p *model.PhoneNumber) phoneResponse {
	return phoneResponse{
		ID:             p.ID,
		PhoneNumber:    p.PhoneNumber,
		IsPrimary:      p.IsPrimary,
		IsVerified:     p.IsVerified,
		HasPendingCode: p.HasPendingCode(),
		CodeSentAt:     p.CodeSentAt,
		CreatedAt:      p.CreatedAt,
	}
}

func toOutcomeResponse(out *phone.Outcome) outcomeResponse {
	return outcomeResponse{
		Phone:   toPhoneResponse(out.Phone),
		SMSSent: out.SMSSent,
		Message: out.Message,
	}
}

// List はユーザーの電話番号一覧を取得する。
// GET /api/phones
func (h *PhoneHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	phones, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]phoneResponse, 0, len(phones))
	for _, p := range phones {
		resp = append(resp, toPhoneResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add は電話番号を登録し検証コードを送信する。
// POST /api/phones
func (h *PhoneHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addPhoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.service.Add(r.Context(), userID, req.PhoneNumber)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOutcomeResponse(out))
}

// Delete は電話番号を削除する。
// DELETE /api/phones/{id}
func (h *PhoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	phoneID, ok := pathID(w, r, model.NewPhoneNotFoundError)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, phoneID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPrimary は電話番号をプライマリに設定する。
// POST /api/phones/{id}/primary
func (h *PhoneHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	phoneID, ok := pathID(w, r, model.NewPhoneNotFoundError)
	if !ok {
		return
	}

	p, err := h.service.SetPrimary(r.Context(), userID, phoneID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhoneResponse(p))
}

// Verify は検証コードを照合する。
// POST /api/phones/{id}/verify
func (h *PhoneHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	phoneID, ok := pathID(w, r, model.NewPhoneNotFoundError)
	if !ok {
		return
	}

	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// 入力時の前後の空白だけを取り除き、照合はサービスで完全一致とする
	out, err := h.service.Verify(r.Context(), userID, phoneID, strings.TrimSpace(req.Code))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(out))
}

// Resend は検証コードを再送する。
// POST /api/phones/{id}/resend
func (h *PhoneHandler) Resend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	phoneID, ok := pathID(w, r, model.NewPhoneNotFoundError)
	if !ok {
		return
	}

	out, err := h.service.Resend(r.Context(), userID, phoneID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(out))
}
