// Package notify はメール通知の送信を提供する。
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Message は送信するメール1通分の内容。
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier はメッセージを送信するインターフェース。
// 送信は同期的に行い、失敗時はエラーを返す。
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

const (
	passwordResetSubject = "Flood Tracker - Password Reset Request"
	passwordResetBody    = "Hello,\n\n" +
		"We received a request to reset your password for your Flood Damage Tracker account.\n\n" +
		"Please click the link below to reset your password:\n" +
		"%s\n\n" +
		"If you did not request this, please ignore this email.\n\n" +
		"Best regards,\n" +
		"Flood Tracker Team"
)

// PasswordResetLink はフロントエンドのパスワード再設定画面へのリンクを組み立てる。
func PasswordResetLink(frontendBaseURL, email string) string {
	base := strings.TrimRight(frontendBaseURL, "/")
	return base + "/reset-password?email=" + url.QueryEscape(email)
}

// NewPasswordResetMessage はパスワード再設定メールを生成する。
func NewPasswordResetMessage(frontendBaseURL, email string) Message {
	return Message{
		To:      email,
		Subject: passwordResetSubject,
		Body:    fmt.Sprintf(passwordResetBody, PasswordResetLink(frontendBaseURL, email)),
	}
}

// LogNotifier はSMTP未設定時に使用するNotifier。
// 実際には送信せず、宛先と件名のみをログに出力する。
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier はLogNotifierを生成する。loggerがnilの場合はslog.Default()を使う。
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send はメッセージの宛先と件名をログに記録する。
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "smtp not configured, mail not sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
