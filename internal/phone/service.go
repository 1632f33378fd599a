package phone

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/repository"
	"github.com/hitoshi/notibac/internal/sms"
)

const (
	// MaxPhonesPerUser はユーザーが登録できる電話番号の上限。
	MaxPhonesPerUser = 3
	// CodeLength は検証コードの桁数。
	CodeLength = 6
	// CodeExpiry は検証コードの有効期間。
	CodeExpiry = 10 * time.Minute
	// ResendCooldown は検証コード再送までの待機時間。
	ResendCooldown = 60 * time.Second
)

// Outcome は電話番号操作の結果を表す。
// SMS送信の失敗は状態変更を取り消さず、SMSSent=falseとして報告する。
type Outcome struct {
	Phone   *model.PhoneNumber
	SMSSent bool
	Message string
}

// Service は電話番号検証ライフサイクルのサービス層。
type Service struct {
	repo    repository.PhoneRepository
	sender  sms.Sender
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	now          func() time.Time
	generateCode func() (string, error)
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.PhoneRepository, sender sms.Sender, logger *slog.Logger, mc metrics.MetricsCollector) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		repo:         repo,
		sender:       sender,
		logger:       logger,
		metrics:      mc,
		now:          time.Now,
		generateCode: GenerateCode,
	}
}

// GenerateCode は暗号論的乱数から6桁の数字コードを生成する。
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(math.Pow10(CodeLength))))
	if err != nil {
		return "", fmt.Errorf("検証コードの生成に失敗しました: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// List はユーザーの電話番号をプライマリ優先・新しい順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.PhoneNumber, error) {
	phones, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("電話番号一覧の取得に失敗しました: %w", err)
	}
	return phones, nil
}

// Add は電話番号を登録し、検証コードをSMSで送信する。
// 最初の番号はプライマリになる。上限・重複はリポジトリがユーザー単位のロック内で確認する。
func (s *Service) Add(ctx context.Context, userID, rawNumber string) (*Outcome, error) {
	// 1. 正規化
	number, err := Normalize(rawNumber)
	if err != nil {
		return nil, err
	}

	// 2. 検証コードの発行
	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}
	now := s.now()
	phone := &model.PhoneNumber{
		UserID:           userID,
		PhoneNumber:      number,
		VerificationCode: &code,
		CodeSentAt:       &now,
		CreatedAt:        now,
	}

	// 3. 登録（上限・重複・プライマリ調整）
	if err := s.repo.Create(ctx, phone, MaxPhonesPerUser); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, model.NewDuplicatePhoneError()
		case errors.Is(err, repository.ErrPhoneLimitExceeded):
			return nil, model.NewPhoneLimitError(MaxPhonesPerUser)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("電話番号の登録に失敗しました: %w", err)
	}

	// 4. SMS送信（失敗しても登録は維持）
	out := &Outcome{Phone: phone}
	out.SMSSent = s.sendCode(ctx, phone, code)
	if out.SMSSent {
		out.Message = fmt.Sprintf("Un code de vérification a été envoyé au %s.", number)
	} else {
		out.Message = "Le numéro a été ajouté, mais l'envoi du SMS a échoué. Demandez un nouveau code."
	}
	return out, nil
}

// Resend は検証コードを再発行して送信する。
// 検証済みの番号には送らず、前回送信から60秒以内はRESEND_COOLDOWNを返す。
func (s *Service) Resend(ctx context.Context, userID, phoneID string) (*Outcome, error) {
	phone, err := s.findOwned(ctx, userID, phoneID)
	if err != nil {
		return nil, err
	}
	if phone.IsVerified {
		return nil, model.NewAlreadyVerifiedError()
	}

	now := s.now()
	if phone.CodeSentAt != nil {
		if remaining := phone.CodeSentAt.Add(ResendCooldown).Sub(now); remaining > 0 {
			return nil, model.NewResendCooldownError(int(math.Ceil(remaining.Seconds())))
		}
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}
	prevSentAt := phone.CodeSentAt
	phone.VerificationCode = &code
	phone.CodeSentAt = &now
	if err := s.repo.UpdateVerification(ctx, phone, prevSentAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrVerificationConflict):
			// 読み取り後に検証または再送が行われた。SMSは送らない
			return nil, s.resendConflict(ctx, userID, phoneID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewPhoneNotFoundError(phoneID)
		}
		return nil, fmt.Errorf("検証コードの保存に失敗しました: %w", err)
	}

	out := &Outcome{Phone: phone}
	out.SMSSent = s.sendCode(ctx, phone, code)
	if out.SMSSent {
		out.Message = "Un nouveau code de vérification a été envoyé."
	} else {
		out.Message = "L'envoi du SMS a échoué. Réessayez plus tard."
	}
	return out, nil
}

// Verify は検証コードを照合する。
// 検証済みなら何もせず成功、未発行ならNO_CODE_PENDING、期限切れならCODE_EXPIRED、
// 不一致ならINVALID_CODEを返す。失敗時は状態を変更しない。
func (s *Service) Verify(ctx context.Context, userID, phoneID, code string) (*Outcome, error) {
	phone, err := s.findOwned(ctx, userID, phoneID)
	if err != nil {
		return nil, err
	}

	// 1. 状態判定
	if phone.IsVerified {
		s.metrics.RecordVerification(metrics.VerificationAlreadyVerified)
		return &Outcome{Phone: phone, Message: "Ce numéro est déjà vérifié."}, nil
	}
	if !phone.HasPendingCode() {
		s.metrics.RecordVerification(metrics.VerificationNoCode)
		return nil, model.NewNoCodePendingError()
	}
	if s.now().After(phone.CodeSentAt.Add(CodeExpiry)) {
		s.metrics.RecordVerification(metrics.VerificationExpired)
		return nil, model.NewCodeExpiredError()
	}

	// 2. 照合（完全一致）
	if subtle.ConstantTimeCompare([]byte(code), []byte(*phone.VerificationCode)) != 1 {
		s.metrics.RecordVerification(metrics.VerificationInvalidCode)
		return nil, model.NewInvalidCodeError()
	}

	// 3. 検証済みに遷移し、コードを破棄
	prevSentAt := phone.CodeSentAt
	phone.IsVerified = true
	phone.VerificationCode = nil
	phone.CodeSentAt = nil
	if err := s.repo.UpdateVerification(ctx, phone, prevSentAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrVerificationConflict):
			return s.verifyConflict(ctx, userID, phoneID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewPhoneNotFoundError(phoneID)
		}
		return nil, fmt.Errorf("検証状態の保存に失敗しました: %w", err)
	}

	s.metrics.RecordVerification(metrics.VerificationVerified)
	s.logger.Info("phone number verified",
		slog.String("user_id", userID),
		slog.String("phone_id", phone.ID),
	)
	return &Outcome{Phone: phone, Message: "Numéro vérifié."}, nil
}

// Delete はユーザーの電話番号を削除する。
// プライマリが削除された場合は残りの最も新しい番号が昇格する。
func (s *Service) Delete(ctx context.Context, userID, phoneID string) error {
	if _, err := s.findOwned(ctx, userID, phoneID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, phoneID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPhoneNotFoundError(phoneID)
		}
		return fmt.Errorf("電話番号の削除に失敗しました: %w", err)
	}
	return nil
}

// SetPrimary は指定した番号をプライマリにし、同一ユーザーの他の番号を降格する。
func (s *Service) SetPrimary(ctx context.Context, userID, phoneID string) (*model.PhoneNumber, error) {
	if _, err := s.findOwned(ctx, userID, phoneID); err != nil {
		return nil, err
	}

	if err := s.repo.SetPrimary(ctx, userID, phoneID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewPhoneNotFoundError(phoneID)
		}
		return nil, fmt.Errorf("プライマリ番号の変更に失敗しました: %w", err)
	}

	phone, err := s.repo.FindByID(ctx, phoneID)
	if err != nil {
		return nil, fmt.Errorf("電話番号の再取得に失敗しました: %w", err)
	}
	if phone == nil {
		return nil, model.NewPhoneNotFoundError(phoneID)
	}
	return phone, nil
}

// resendConflict は再送の保存が競合したとき、最新の状態から返すエラーを決める。
func (s *Service) resendConflict(ctx context.Context, userID, phoneID string) error {
	current, err := s.findOwned(ctx, userID, phoneID)
	if err != nil {
		return err
	}
	if current.IsVerified {
		return model.NewAlreadyVerifiedError()
	}
	remaining := ResendCooldown
	if current.CodeSentAt != nil {
		remaining = current.CodeSentAt.Add(ResendCooldown).Sub(s.now())
	}
	return model.NewResendCooldownError(max(1, int(math.Ceil(remaining.Seconds()))))
}

// verifyConflict は検証の保存が競合したとき、最新の状態から結果を決める。
// 先に検証済みになっていれば成功、コードが再発行されていれば照合したコードは無効。
func (s *Service) verifyConflict(ctx context.Context, userID, phoneID string) (*Outcome, error) {
	current, err := s.findOwned(ctx, userID, phoneID)
	if err != nil {
		return nil, err
	}
	if current.IsVerified {
		s.metrics.RecordVerification(metrics.VerificationAlreadyVerified)
		return &Outcome{Phone: current, Message: "Ce numéro est déjà vérifié."}, nil
	}
	s.metrics.RecordVerification(metrics.VerificationInvalidCode)
	return nil, model.NewInvalidCodeError()
}

// findOwned は電話番号を取得し、呼び出し元ユーザーの所有であることを確認する。
// 他ユーザーの番号は存在しないものとして扱う。
func (s *Service) findOwned(ctx context.Context, userID, phoneID string) (*model.PhoneNumber, error) {
	phone, err := s.repo.FindByID(ctx, phoneID)
	if err != nil {
		return nil, fmt.Errorf("電話番号の取得に失敗しました: %w", err)
	}
	if phone == nil || phone.UserID != userID {
		return nil, model.NewPhoneNotFoundError(phoneID)
	}
	return phone, nil
}

func (s *Service) sendCode(ctx context.Context, phone *model.PhoneNumber, code string) bool {
	if err := s.sender.Send(ctx, phone.PhoneNumber, sms.VerificationMessage(code)); err != nil {
		s.metrics.RecordSMS(false)
		s.logger.Warn("verification SMS not delivered",
			slog.String("phone_id", phone.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	s.metrics.RecordSMS(true)
	return true
}
