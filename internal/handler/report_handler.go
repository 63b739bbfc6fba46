package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/floodwatch/internal/model"
)

// ReportServiceInterface は報告ハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	Create(ctx context.Context, payload model.Report) (*model.Report, error)
	Resolve(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context) ([]*model.Report, error)
}

// ReportHandler は被害報告のHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// ListReports は全報告を返す。
// GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// CreateReport は報告を作成する。
// POST /api/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req model.Report
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, r, apiErr)
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// ResolveReport は報告を解決済みにする。
// PUT /api/reports/{id}/resolve
func (h *ReportHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resolved, err := h.service.Resolve(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}
