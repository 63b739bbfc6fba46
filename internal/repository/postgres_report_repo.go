package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/floodwatch/internal/model"
)

// PostgresReportRepo はPostgreSQLを使用した報告リポジトリ。
type PostgresReportRepo struct {
	db *sql.DB
}

// NewPostgresReportRepo はPostgresReportRepoを生成する。
func NewPostgresReportRepo(db *sql.DB) *PostgresReportRepo {
	return &PostgresReportRepo{db: db}
}

const reportColumns = `id, district, location, type, criticality, description,
	latitude, longitude, reporter_name, contact_number, status, "timestamp"`

// Create は報告を作成する。
func (r *PostgresReportRepo) Create(ctx context.Context, report *model.Report) error {
	id := uuid.New().String()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, report.District, report.Location, report.Type, report.Criticality, report.Description,
		nullFloat(report.Latitude), nullFloat(report.Longitude),
		report.ReporterName, report.ContactNumber, string(report.Status), report.Timestamp.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	report.ID = id
	return nil
}

// FindByID は指定IDの報告を取得する。見つからない場合はnilを返す。
func (r *PostgresReportRepo) FindByID(ctx context.Context, id string) (*model.Report, error) {
	report, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report by ID: %w", err)
	}
	return report, nil
}

// Update は既存の報告を上書き更新する。IDとtimestampは変更しない。
func (r *PostgresReportRepo) Update(ctx context.Context, report *model.Report) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reports SET
			district = $2, location = $3, type = $4, criticality = $5, description = $6,
			latitude = $7, longitude = $8, reporter_name = $9, contact_number = $10, status = $11
		 WHERE id = $1`,
		report.ID, report.District, report.Location, report.Type, report.Criticality, report.Description,
		nullFloat(report.Latitude), nullFloat(report.Longitude),
		report.ReporterName, report.ContactNumber, string(report.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("report %s: %w", report.ID, ErrNotFound)
	}
	return nil
}

// List は全報告をtimestamp昇順で返す。
func (r *PostgresReportRepo) List(ctx context.Context) ([]*model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY "timestamp" ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	results := []*model.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		results = append(results, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return results, nil
}

// PingContext はデータベースの疎通を確認する。
func (r *PostgresReportRepo) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	report := &model.Report{}
	var lat, lng sql.NullFloat64
	var status string
	err := row.Scan(
		&report.ID, &report.District, &report.Location, &report.Type, &report.Criticality, &report.Description,
		&lat, &lng, &report.ReporterName, &report.ContactNumber, &status, &report.Timestamp.Time,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		report.Latitude = &lat.Float64
	}
	if lng.Valid {
		report.Longitude = &lng.Float64
	}
	report.Status = model.ReportStatus(status)
	return report, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// compile-time interface check
var (
	_ ReportRepository = (*PostgresReportRepo)(nil)
	_ HealthChecker    = (*PostgresReportRepo)(nil)
)
