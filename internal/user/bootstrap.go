// Package user はユーザーアカウントの初期投入を提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/floodwatch/internal/model"
	"github.com/hitoshi/floodwatch/internal/repository"
)

// PasswordPreparer は保存用のパスワード値を生成する。auth.CredentialVerifierが満たす。
type PasswordPreparer interface {
	Prepare(plain string) (string, error)
}

// AdminAccount は起動時に保証する管理者アカウントの内容。
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// EnsureAdmin は管理者アカウントが存在しなければ作成する。
// 同じメールアドレスのユーザーが既にいれば何もしない（権限やパスワードも変更しない）。
// 作成した場合はcreated=trueを返す。
func EnsureAdmin(ctx context.Context, users repository.UserRepository, preparer PasswordPreparer, admin AdminAccount) (bool, error) {
	if admin.Email == "" {
		return false, errors.New("admin email is empty")
	}

	existing, err := users.FindByEmail(ctx, admin.Email)
	if err != nil {
		return false, fmt.Errorf("管理者アカウントの確認に失敗しました: %w", err)
	}
	if existing != nil {
		slog.Debug("admin account already exists", slog.String("user_id", existing.ID))
		return false, nil
	}

	password, err := preparer.Prepare(admin.Password)
	if err != nil {
		return false, fmt.Errorf("管理者パスワードの生成に失敗しました: %w", err)
	}

	u := &model.User{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: password,
		Role:     model.RoleAdmin,
	}
	if err := users.Create(ctx, u); err != nil {
		return false, fmt.Errorf("管理者アカウントの作成に失敗しました: %w", err)
	}

	slog.Info("admin account created", slog.String("user_id", u.ID))
	return true, nil
}
