package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/floodwatch/internal/model"
)

// 各ドライバ共通の振る舞いを検証するテスト群。
// memory/postgres/mongoのテストから呼び出す。

func float64Ptr(v float64) *float64 { return &v }

func newTestReport(district string, ts time.Time) *model.Report {
	return &model.Report{
		District:      district,
		Location:      "Main Street",
		Type:          "Flood",
		Criticality:   "High",
		Description:   "water rising",
		Latitude:      float64Ptr(6.9271),
		Longitude:     float64Ptr(79.8612),
		ReporterName:  "Nimal",
		ContactNumber: "0771234567",
		Status:        model.ReportStatusActive,
		Timestamp:     model.NewLocalDateTime(ts),
	}
}

func runUserRepoContract(t *testing.T, repo UserRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("Create assigns ID", func(t *testing.T) {
		u := &model.User{Name: "Alice", Email: "alice@example.com", Password: "pw", Role: model.RoleUser}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if u.ID == "" {
			t.Fatal("expected ID to be assigned")
		}
		if u.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be assigned")
		}

		got, err := repo.FindByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got == nil {
			t.Fatal("expected user, got nil")
		}
		if got.Email != u.Email || got.Name != u.Name || got.Password != u.Password || got.Role != u.Role {
			t.Errorf("FindByID = %+v, want %+v", got, u)
		}
	})

	t.Run("FindByEmail returns nil when absent", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("FindByID returns nil when absent", func(t *testing.T) {
		got, err := repo.FindByID(ctx, "does-not-exist")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("FindByEmail returns earliest duplicate", func(t *testing.T) {
		first := &model.User{Name: "First", Email: "dup@example.com", Password: "one", Role: model.RoleUser}
		if err := repo.Create(ctx, first); err != nil {
			t.Fatalf("Create first: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
		second := &model.User{Name: "Second", Email: "dup@example.com", Password: "two", Role: model.RoleUser}
		if err := repo.Create(ctx, second); err != nil {
			t.Fatalf("Create second: %v", err)
		}

		got, err := repo.FindByEmail(ctx, "dup@example.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		if got == nil || got.ID != first.ID {
			t.Errorf("FindByEmail = %+v, want ID %s", got, first.ID)
		}
	})

	t.Run("email match is exact", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "ALICE@example.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		if got != nil {
			t.Errorf("expected case-sensitive miss, got %+v", got)
		}
	})
}

func runReportRepoContract(t *testing.T, repo ReportRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 11, 3, 9, 30, 0, 0, time.Local)

	t.Run("Create and FindByID round trip", func(t *testing.T) {
		r := newTestReport("Colombo", base)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if r.ID == "" {
			t.Fatal("expected ID to be assigned")
		}

		got, err := repo.FindByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got == nil {
			t.Fatal("expected report, got nil")
		}
		if got.District != "Colombo" || got.Status != model.ReportStatusActive {
			t.Errorf("unexpected report: %+v", got)
		}
		if got.Latitude == nil || *got.Latitude != 6.9271 {
			t.Errorf("Latitude = %v, want 6.9271", got.Latitude)
		}
		if !got.Timestamp.Equal(base) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp.Time, base)
		}
	})

	t.Run("null coordinates survive", func(t *testing.T) {
		r := newTestReport("Gampaha", base)
		r.Latitude, r.Longitude = nil, nil
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.FindByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Latitude != nil || got.Longitude != nil {
			t.Errorf("expected nil coordinates, got %v %v", got.Latitude, got.Longitude)
		}
	})

	t.Run("FindByID returns nil when absent", func(t *testing.T) {
		got, err := repo.FindByID(ctx, "does-not-exist")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("Update changes status", func(t *testing.T) {
		r := newTestReport("Kalutara", base)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		r.Status = model.ReportStatusResolved
		if err := repo.Update(ctx, r); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := repo.FindByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Status != model.ReportStatusResolved {
			t.Errorf("Status = %q, want resolved", got.Status)
		}
		if got.District != "Kalutara" {
			t.Errorf("District changed unexpectedly: %q", got.District)
		}
	})

	t.Run("Update missing returns ErrNotFound", func(t *testing.T) {
		r := newTestReport("Nowhere", base)
		r.ID = "does-not-exist"
		err := repo.Update(ctx, r)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update error = %v, want ErrNotFound", err)
		}
	})

	t.Run("List orders by timestamp", func(t *testing.T) {
		late := newTestReport("Late", base.Add(2*time.Hour))
		early := newTestReport("Early", base.Add(-2*time.Hour))
		for _, r := range []*model.Report{late, early} {
			if err := repo.Create(ctx, r); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		list, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) < 2 {
			t.Fatalf("List returned %d reports", len(list))
		}
		if list[0].District != "Early" {
			t.Errorf("first report = %q, want Early", list[0].District)
		}
		if list[len(list)-1].District != "Late" {
			t.Errorf("last report = %q, want Late", list[len(list)-1].District)
		}
		for i := 1; i < len(list); i++ {
			if list[i].Timestamp.Before(list[i-1].Timestamp.Time) {
				t.Errorf("List not sorted at %d", i)
			}
		}
	})
}
