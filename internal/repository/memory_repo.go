package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/floodwatch/internal/model"
)

// MemoryUserRepo はプロセス内メモリに保持するユーザーリポジトリ。
// 開発用のSTORE_DRIVER=memoryとテストで使用する。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
	now   func() time.Time
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: make(map[string]model.User),
		now:   time.Now,
	}
}

// Create はユーザーを作成する。
func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = uuid.New().String()
	user.CreatedAt = r.now()
	r.users[user.ID] = *user
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.User
	for _, u := range r.users {
		if u.Email != email {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) ||
			(u.CreatedAt.Equal(found.CreatedAt) && u.ID < found.ID) {
			cp := u
			found = &cp
		}
	}
	return found, nil
}

// Count は保持しているユーザー数を返す。テスト用。
func (r *MemoryUserRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// MemoryReportRepo はプロセス内メモリに保持する報告リポジトリ。
type MemoryReportRepo struct {
	mu      sync.RWMutex
	reports map[string]model.Report
}

// NewMemoryReportRepo はMemoryReportRepoを生成する。
func NewMemoryReportRepo() *MemoryReportRepo {
	return &MemoryReportRepo{reports: make(map[string]model.Report)}
}

// Create は報告を作成する。
func (r *MemoryReportRepo) Create(_ context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report.ID = uuid.New().String()
	r.reports[report.ID] = copyReport(*report)
	return nil
}

// FindByID は指定IDの報告を取得する。見つからない場合はnilを返す。
func (r *MemoryReportRepo) FindByID(_ context.Context, id string) (*model.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rep, ok := r.reports[id]
	if !ok {
		return nil, nil
	}
	cp := copyReport(rep)
	return &cp, nil
}

// Update は既存の報告を上書き更新する。
func (r *MemoryReportRepo) Update(_ context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reports[report.ID]; !ok {
		return ErrNotFound
	}
	r.reports[report.ID] = copyReport(*report)
	return nil
}

// List は全報告をtimestamp昇順で返す。
func (r *MemoryReportRepo) List(_ context.Context) ([]*model.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*model.Report, 0, len(r.reports))
	for _, rep := range r.reports {
		cp := copyReport(rep)
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		ti, tj := results[i].Timestamp.Time, results[j].Timestamp.Time
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// PingContext は常に成功する。
func (r *MemoryReportRepo) PingContext(_ context.Context) error {
	return nil
}

// copyReport は座標ポインタを含めて報告を複製する。
// 呼び出し側の変更がストア内部の値に波及しないようにする。
func copyReport(src model.Report) model.Report {
	dst := src
	if src.Latitude != nil {
		v := *src.Latitude
		dst.Latitude = &v
	}
	if src.Longitude != nil {
		v := *src.Longitude
		dst.Longitude = &v
	}
	return dst
}

// compile-time interface check
var (
	_ UserRepository   = (*MemoryUserRepo)(nil)
	_ ReportRepository = (*MemoryReportRepo)(nil)
	_ HealthChecker    = (*MemoryReportRepo)(nil)
)
