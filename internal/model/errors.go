// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, report, validation, system
	Action   string // ユーザー向け対処方法

	// Cause は内部の原因エラー。レスポンスには含めない。
	Cause error
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Cause
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeReportNotFound     = "REPORT_NOT_FOUND"
	ErrCodeEmailNotFound      = "EMAIL_NOT_FOUND"
	ErrCodeNotifierFailure    = "NOTIFIER_FAILURE"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの有無とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check your email and password.",
	}
}

// NewInvalidTokenError はGoogleトークンの解決失敗エラーを生成する。
// 失敗原因（通信・形式・項目欠落）は区別しない。
func NewInvalidTokenError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid Google Token",
		Category: "auth",
		Action:   "Sign in with Google again.",
		Cause:    cause,
	}
}

// NewReportNotFoundError は報告未検出エラーを生成する。
func NewReportNotFoundError(reportID string) *APIError {
	return &APIError{
		Code:     ErrCodeReportNotFound,
		Message:  fmt.Sprintf("Report not found: %s", reportID),
		Category: "report",
		Action:   "Check the report ID.",
	}
}

// NewEmailNotFoundError はパスワードリセット対象のメールアドレス未登録エラーを生成する。
func NewEmailNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotFound,
		Message:  "Email not found",
		Category: "auth",
		Action:   "Check the email address.",
	}
}

// NewNotifierFailureError はメール送信失敗エラーを生成する。
func NewNotifierFailureError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeNotifierFailure,
		Message:  "Error sending email. Check server logs.",
		Category: "system",
		Action:   "Try again later.",
		Cause:    cause,
	}
}

// NewInvalidRequestError はリクエストボディ不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Send a valid JSON body.",
	}
}

// NewInvalidStatusError は定義外の報告ステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("Invalid report status: %s", status),
		Category: "validation",
		Action:   "Use active or resolved, or omit the status.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Try again later.",
	}
}
