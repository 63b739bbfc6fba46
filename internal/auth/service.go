// Package auth はユーザー登録・ログイン・Googleログイン・パスワード再設定メールを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/floodwatch/internal/metrics"
	"github.com/hitoshi/floodwatch/internal/model"
	"github.com/hitoshi/floodwatch/internal/notify"
	"github.com/hitoshi/floodwatch/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// googleProvider はセンチネルパスワードに埋め込むプロバイダー名。
const googleProvider = "google"

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// FrontendBaseURL はパスワード再設定リンクの基点URL。
	FrontendBaseURL string
}

// Service は認証に関するビジネスロジックを提供する。
// セッションやトークンは発行せず、成功時は保存済みのユーザーレコードを返す。
type Service struct {
	users    repository.UserRepository
	resolver IdentityResolver
	verifier CredentialVerifier
	notifier notify.Notifier
	metrics  metrics.Recorder
	config   ServiceConfig
}

// NewService はServiceを生成する。recがnilの場合はメトリクスを記録しない。
func NewService(
	users repository.UserRepository,
	resolver IdentityResolver,
	verifier CredentialVerifier,
	notifier notify.Notifier,
	rec metrics.Recorder,
	config ServiceConfig,
) *Service {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	if verifier == nil {
		verifier = PlaintextVerifier{}
	}
	return &Service{
		users:    users,
		resolver: resolver,
		verifier: verifier,
		notifier: notifier,
		metrics:  rec,
		config:   config,
	}
}

// SanitizeRegistration はクライアントが送った登録内容から
// 権限とIDを取り除き、一般ユーザーとして保存できる形にする。
func SanitizeRegistration(candidate model.User) model.User {
	return model.User{
		Name:     candidate.Name,
		Email:    candidate.Email,
		Password: candidate.Password,
		Role:     model.RoleUser,
	}
}

// Register はユーザーを登録する。メールアドレスの重複やパスワード強度は検査しない。
func (s *Service) Register(ctx context.Context, candidate model.User) (*model.User, error) {
	user := SanitizeRegistration(candidate)

	stored, err := s.verifier.Prepare(user.Password)
	if err != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindRegister, metrics.OutcomeFailure)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, model.NewInvalidRequestError("password too long")
		}
		return nil, fmt.Errorf("failed to prepare password: %w", err)
	}
	user.Password = stored

	if err := s.users.Create(ctx, &user); err != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindRegister, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.metrics.RecordAuthAttempt(metrics.AuthKindRegister, metrics.OutcomeSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))
	return &user, nil
}

// Login はメールアドレスとパスワードで認証する。
// メールアドレス未登録とパスワード不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.verifier.Verify(user.Password, password) {
		s.metrics.RecordAuthAttempt(metrics.AuthKindLogin, metrics.OutcomeFailure)
		slog.Info("login rejected")
		return nil, model.NewInvalidCredentialsError()
	}

	s.metrics.RecordAuthAttempt(metrics.AuthKindLogin, metrics.OutcomeSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, nil
}

// LoginWithGoogle はGoogleトークンを解決し、対応するユーザーを返す。
// 未登録のメールアドレスであれば一般ユーザーとして作成する。
// 既存ユーザーの名前などはGoogle側の情報で更新しない。
func (s *Service) LoginWithGoogle(ctx context.Context, token string) (*model.User, error) {
	profile, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindGoogle, metrics.OutcomeFailure)
		slog.Warn("google token rejected", slog.String("error", err.Error()))
		return nil, model.NewInvalidTokenError(err)
	}

	existing, err := s.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindGoogle, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindGoogle, metrics.OutcomeSuccess)
		slog.Info("existing user logged in",
			slog.String("user_id", existing.ID),
			slog.String("provider", googleProvider),
		)
		return existing, nil
	}

	user := &model.User{
		Name:     profile.Name,
		Email:    profile.Email,
		Password: model.SentinelPassword(googleProvider),
		Role:     model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.metrics.RecordAuthAttempt(metrics.AuthKindGoogle, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordAuthAttempt(metrics.AuthKindGoogle, metrics.OutcomeSuccess)
	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("provider", googleProvider),
	)
	return user, nil
}

// ForgotPassword は登録済みのメールアドレスにパスワード再設定リンクを送信し、
// クライアントに返す確認メッセージを返す。
// 未登録の場合はNotifierを呼ばずにEMAIL_NOT_FOUNDを返す。
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordResetMail(metrics.OutcomeError)
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordResetMail(metrics.OutcomeNotFound)
		return "", model.NewEmailNotFoundError()
	}

	msg := notify.NewPasswordResetMessage(s.config.FrontendBaseURL, email)
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.metrics.RecordResetMail(metrics.OutcomeFailure)
		slog.Error("failed to send password reset mail",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return "", model.NewNotifierFailureError(err)
	}

	s.metrics.RecordResetMail(metrics.OutcomeSuccess)
	slog.Info("password reset mail sent", slog.String("user_id", user.ID))
	return "Reset link sent successfully to " + email, nil
}
