// Package report は被害報告の作成・解決・一覧のドメインロジックを提供する。
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/floodwatch/internal/metrics"
	"github.com/hitoshi/floodwatch/internal/model"
	"github.com/hitoshi/floodwatch/internal/repository"
)

// Service は被害報告のサービス層。
type Service struct {
	reports repository.ReportRepository
	metrics metrics.Recorder
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recがnilの場合はメトリクスを記録しない。
func NewService(reports repository.ReportRepository, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Service{
		reports: reports,
		metrics: rec,
		now:     time.Now,
	}
}

// Create は報告を作成する。
// IDと作成時刻はサーバー側で採番し、クライアントが送った値は使わない。
// statusが空の場合はactiveとし、列挙値以外はINVALID_STATUSで拒否する。
func (s *Service) Create(ctx context.Context, payload model.Report) (*model.Report, error) {
	r := payload
	r.ID = ""
	r.Timestamp = model.NewLocalDateTime(s.now())

	if r.Status == "" {
		r.Status = model.ReportStatusActive
	}
	if !r.Status.Valid() {
		return nil, model.NewInvalidStatusError(string(r.Status))
	}

	if err := s.reports.Create(ctx, &r); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.metrics.RecordReportCreated()
	slog.Info("report created",
		slog.String("report_id", r.ID),
		slog.String("district", r.District),
		slog.String("status", string(r.Status)),
	)
	return &r, nil
}

// Resolve は報告を解決済みにする。すでに解決済みでもエラーにしない。
// 存在しない場合はREPORT_NOT_FOUNDを返し、何も更新しない。
func (s *Service) Resolve(ctx context.Context, id string) (*model.Report, error) {
	r, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	if r == nil {
		return nil, model.NewReportNotFoundError(id)
	}

	if r.Status == model.ReportStatusResolved {
		return r, nil
	}

	r.Status = model.ReportStatusResolved
	if err := s.reports.Update(ctx, r); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewReportNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}

	s.metrics.RecordReportResolved()
	slog.Info("report resolved", slog.String("report_id", id))
	return r, nil
}

// List は全報告を作成時刻の昇順で返す。0件の場合も空スライスを返す。
func (s *Service) List(ctx context.Context) ([]*model.Report, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if reports == nil {
		reports = []*model.Report{}
	}
	return reports, nil
}
