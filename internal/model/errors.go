// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（利用者向け、フランス語）
	Category string // カテゴリ: input_format, validation, state_conflict, external_service, data_integrity, auth, system
	Action   string // ユーザー向け対処方法

	// RetryAfterSeconds は再送クールダウン中の残り秒数。クールダウン以外では0。
	RetryAfterSeconds int
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryInputFormat     = "input_format"
	CategoryValidation      = "validation"
	CategoryStateConflict   = "state_conflict"
	CategoryExternalService = "external_service"
	CategoryDataIntegrity   = "data_integrity"
	CategoryAuth            = "auth"
	CategorySystem          = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidPhoneNumber = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidTime        = "INVALID_TIME"
	ErrCodePhoneLimit         = "PHONE_LIMIT"
	ErrCodeDuplicatePhone     = "DUPLICATE_PHONE"
	ErrCodePhoneNotFound      = "PHONE_NOT_FOUND"
	ErrCodePhoneNotVerified   = "PHONE_NOT_VERIFIED"
	ErrCodePreferenceLimit    = "PREFERENCE_LIMIT"
	ErrCodePreferenceNotFound = "PREFERENCE_NOT_FOUND"
	ErrCodeCalendarNotFound   = "CALENDAR_NOT_FOUND"
	ErrCodeNoCodePending      = "NO_CODE_PENDING"
	ErrCodeCodeExpired        = "CODE_EXPIRED"
	ErrCodeResendCooldown     = "RESEND_COOLDOWN"
	ErrCodeInvalidCode        = "INVALID_CODE"
	ErrCodeAlreadyVerified    = "ALREADY_VERIFIED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディが解釈できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Requête invalide: %s", reason),
		Category: CategoryInputFormat,
		Action:   "Vérifiez le format de la requête.",
	}
}

// NewInvalidPhoneNumberError は電話番号として解釈できない入力のエラーを生成する。
func NewInvalidPhoneNumberError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhoneNumber,
		Message:  "Entrez un numéro de téléphone canadien valide.",
		Category: CategoryInputFormat,
		Action:   "Saisissez 10 chiffres, par exemple 819-555-0100.",
	}
}

// NewInvalidTimeError は通知時刻がHH:MM形式でない場合のエラーを生成する。
func NewInvalidTimeError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTime,
		Message:  fmt.Sprintf("Heure de notification invalide: %q", value),
		Category: CategoryInputFormat,
		Action:   "Utilisez le format HH:MM, par exemple 18:00.",
	}
}

// NewValidationError はフィールド単位の検証エラーをまとめて生成する。
func NewValidationError(fields []string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Champs invalides: %s", strings.Join(fields, ", ")),
		Category: CategoryValidation,
		Action:   "Corrigez les champs indiqués puis réessayez.",
	}
}

// NewPhoneLimitError は電話番号の登録上限エラーを生成する。
func NewPhoneLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodePhoneLimit,
		Message:  fmt.Sprintf("Vous ne pouvez pas ajouter plus de %d numéros de téléphone.", limit),
		Category: CategoryValidation,
		Action:   "Supprimez un numéro existant avant d'en ajouter un nouveau.",
	}
}

// NewDuplicatePhoneError は同一ユーザーが同じ番号を重複登録しようとした場合のエラーを生成する。
func NewDuplicatePhoneError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicatePhone,
		Message:  "Ce numéro de téléphone est déjà enregistré.",
		Category: CategoryValidation,
		Action:   "Choisissez ce numéro dans la liste existante.",
	}
}

// NewPhoneNotFoundError は電話番号が見つからない、または他ユーザーの所有である場合のエラーを生成する。
func NewPhoneNotFoundError(phoneID string) *APIError {
	return &APIError{
		Code:     ErrCodePhoneNotFound,
		Message:  fmt.Sprintf("Numéro de téléphone introuvable: %s", phoneID),
		Category: CategoryValidation,
		Action:   "Vérifiez l'identifiant du numéro.",
	}
}

// NewPhoneNotVerifiedError は未検証の電話番号を通知先に指定した場合のエラーを生成する。
func NewPhoneNotVerifiedError() *APIError {
	return &APIError{
		Code:     ErrCodePhoneNotVerified,
		Message:  "Ce numéro de téléphone n'est pas vérifié.",
		Category: CategoryValidation,
		Action:   "Vérifiez le numéro avec le code reçu par SMS avant de l'utiliser.",
	}
}

// NewPreferenceLimitError は通知設定の登録上限エラーを生成する。
func NewPreferenceLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodePreferenceLimit,
		Message:  fmt.Sprintf("Vous ne pouvez pas créer plus de %d préférences de notification.", limit),
		Category: CategoryValidation,
		Action:   "Supprimez une préférence existante avant d'en créer une nouvelle.",
	}
}

// NewPreferenceNotFoundError は通知設定が見つからない場合のエラーを生成する。
func NewPreferenceNotFoundError(prefID string) *APIError {
	return &APIError{
		Code:     ErrCodePreferenceNotFound,
		Message:  fmt.Sprintf("Préférence de notification introuvable: %s", prefID),
		Category: CategoryValidation,
		Action:   "Vérifiez l'identifiant de la préférence.",
	}
}

// NewCalendarNotFoundError はカレンダーが見つからない場合のエラーを生成する。
func NewCalendarNotFoundError(calendarID string) *APIError {
	return &APIError{
		Code:     ErrCodeCalendarNotFound,
		Message:  fmt.Sprintf("Calendrier introuvable: %s", calendarID),
		Category: CategoryValidation,
		Action:   "Choisissez un calendrier dans la liste des secteurs.",
	}
}

// NewNoCodePendingError は検証コードが発行されていない状態で検証した場合のエラーを生成する。
func NewNoCodePendingError() *APIError {
	return &APIError{
		Code:     ErrCodeNoCodePending,
		Message:  "Aucun code de vérification en attente.",
		Category: CategoryStateConflict,
		Action:   "Demandez un nouveau code.",
	}
}

// NewCodeExpiredError は検証コードの有効期限切れエラーを生成する。
func NewCodeExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeCodeExpired,
		Message:  "Le code de vérification a expiré.",
		Category: CategoryStateConflict,
		Action:   "Demandez un nouveau code.",
	}
}

// NewResendCooldownError は再送クールダウン中のエラーを生成する。
// remainingSecondsには再送可能になるまでの残り秒数（切り上げ）を指定する。
func NewResendCooldownError(remainingSeconds int) *APIError {
	return &APIError{
		Code:              ErrCodeResendCooldown,
		Message:           fmt.Sprintf("Veuillez attendre %d secondes avant de renvoyer le code.", remainingSeconds),
		Category:          CategoryStateConflict,
		Action:            "Réessayez après le délai indiqué.",
		RetryAfterSeconds: remainingSeconds,
	}
}

// NewInvalidCodeError は検証コード不一致のエラーを生成する。
func NewInvalidCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCode,
		Message:  "Code de vérification invalide.",
		Category: CategoryStateConflict,
		Action:   "Vérifiez le code reçu par SMS.",
	}
}

// NewAlreadyVerifiedError は検証済みの番号に再送を要求した場合のエラーを生成する。
func NewAlreadyVerifiedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyVerified,
		Message:  "Ce numéro est déjà vérifié.",
		Category: CategoryStateConflict,
		Action:   "Aucune action n'est nécessaire.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "Utilisateur introuvable.",
		Category: CategoryAuth,
		Action:   "Reconnectez-vous.",
	}
}

// NewUnauthorizedError は認証済みユーザーIDが付与されていない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentification requise.",
		Category: CategoryAuth,
		Action:   "Connectez-vous puis réessayez.",
	}
}

// NewInternalError はシステム内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Une erreur interne est survenue.",
		Category: CategorySystem,
		Action:   "Veuillez réessayer plus tard.",
	}
}

// NewRateLimitError はリクエスト頻度の上限超過エラーを生成する。
func NewRateLimitError(retryAfterSeconds int) *APIError {
	return &APIError{
		Code:              ErrCodeRateLimited,
		Message:           "Trop de requêtes.",
		Category:          CategorySystem,
		Action:            "Patientez quelques instants avant de réessayer.",
		RetryAfterSeconds: retryAfterSeconds,
	}
}

// NewNotFoundError は存在しないエンドポイントへのリクエストのエラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "Ressource introuvable.",
		Category: CategoryValidation,
		Action:   "Vérifiez l'adresse demandée.",
	}
}

// NewDuplicateEmailError はメールアドレスが既に登録されている場合のエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "Cette adresse courriel est déjà utilisée.",
		Category: CategoryValidation,
		Action:   "Utilisez une autre adresse courriel.",
	}
}
