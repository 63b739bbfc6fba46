package auth

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/floodwatch/internal/model"
	"github.com/hitoshi/floodwatch/internal/notify"
)

// --- モック定義 ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) error
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = "generated-id"
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockResolver struct {
	resolveFn func(ctx context.Context, token string) (*Profile, error)
}

func (m *mockResolver) Resolve(ctx context.Context, token string) (*Profile, error) {
	return m.resolveFn(ctx, token)
}

type mockNotifier struct {
	mu     sync.Mutex
	sendFn func(ctx context.Context, msg notify.Message) error
	sent   []notify.Message
}

func (m *mockNotifier) Send(ctx context.Context, msg notify.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return nil
}

func (m *mockNotifier) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type authAttempt struct{ kind, outcome string }

// recordingMetrics は記録された認証試行とメール送信結果を保持する。
type recordingMetrics struct {
	mu       sync.Mutex
	attempts []authAttempt
	mails    []string
}

func (r *recordingMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
func (r *recordingMetrics) RecordReportCreated()                                {}
func (r *recordingMetrics) RecordReportResolved()                               {}

func (r *recordingMetrics) RecordAuthAttempt(kind, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, authAttempt{kind, outcome})
}

func (r *recordingMetrics) RecordResetMail(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mails = append(r.mails, outcome)
}
