// Package sms はSMS送信を提供する。
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured はSMSプロバイダの認証情報が設定されていないことを表す。
var ErrNotConfigured = errors.New("sms: twilio credentials not configured")

// Sender はSMSを1通送信する。
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Config はTwilioの認証情報と送信元番号を保持する。
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// VerificationMessage は検証コード通知の本文を返す。
func VerificationMessage(code string) string {
	return "Votre code de vérification Notibac: " + code
}

// messageCreator はTwilio Messages APIのうち送信に使う部分。
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender はTwilio経由でSMSを送信する。
type TwilioSender struct {
	api    messageCreator
	from   string
	logger *slog.Logger
}

// コンパイル時にインターフェースの実装を検証する
var (
	_ Sender = (*TwilioSender)(nil)
	_ Sender = disabledSender{}
)

// NewSender はConfigからSenderを生成する。
// 認証情報または送信元番号が欠けている場合は、常にErrNotConfiguredを返すSenderを返す。
func NewSender(cfg Config, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		logger.Warn("twilio credentials not configured")
		return disabledSender{logger: logger}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromNumber, logger: logger}
}

// Send はSMSを送信する。失敗時のリトライは行わない。
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Error("failed to send SMS",
			slog.String("to", MaskNumber(to)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("sms: send to %s: %w", MaskNumber(to), err)
	}

	attrs := []any{slog.String("to", MaskNumber(to))}
	if msg != nil && msg.Sid != nil {
		attrs = append(attrs, slog.String("sid", *msg.Sid))
	}
	s.logger.Info("SMS sent", attrs...)
	return nil
}

// disabledSender は認証情報がない環境で使われるSender。
type disabledSender struct {
	logger *slog.Logger
}

func (d disabledSender) Send(_ context.Context, to, _ string) error {
	d.logger.Error("twilio credentials not configured", slog.String("to", MaskNumber(to)))
	return ErrNotConfigured
}

// MaskNumber はログ出力用に電話番号の末尾4桁以外を伏せる。
func MaskNumber(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
