// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/floodwatch/internal/model"
)

// ErrNotFound は更新対象のレコードが存在しない場合のエラー。
var ErrNotFound = errors.New("record not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。IDとCreatedAtはストア側で採番し、引数に書き戻す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// emailの一意性は保証しないため、複数存在する場合は最も古いレコードを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// ReportRepository は被害報告データの永続化インターフェース。
type ReportRepository interface {
	// Create は報告を作成する。IDはストア側で採番し、引数に書き戻す。
	Create(ctx context.Context, report *model.Report) error

	// FindByID は指定IDの報告を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// Update は既存の報告を上書き更新する。存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, report *model.Report) error

	// List は全報告をtimestamp昇順（同時刻はID昇順）で返す。
	List(ctx context.Context) ([]*model.Report, error)
}

// HealthChecker はストアの疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}
