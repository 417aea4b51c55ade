package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sentinelspace/platform/pkg/models"
)

type jobRow struct {
	ID                  int64          `db:"id"`
	AssetID             sql.NullInt64  `db:"asset_id"`
	Status              string         `db:"status"`
	Progress            float64        `db:"progress"`
	TotalObjects        int            `db:"total_objects"`
	CandidatesFound     int            `db:"candidates_found"`
	ConjunctionsFound   int            `db:"conjunctions_found"`
	TimeWindowDays      float64        `db:"time_window_days"`
	DistanceThresholdKm float64        `db:"distance_threshold_km"`
	CreatedAt           time.Time      `db:"created_at"`
	StartedAt           sql.NullTime   `db:"started_at"`
	CompletedAt         sql.NullTime   `db:"completed_at"`
	ResultNote          sql.NullString `db:"result_note"`
	ErrorMessage        sql.NullString `db:"error_message"`
}

func (r jobRow) toModel() models.ScreeningJob {
	job := models.ScreeningJob{
		ID:                  r.ID,
		AssetID:             r.AssetID.Int64,
		Status:              models.JobStatus(r.Status),
		Progress:            r.Progress,
		WindowDays:          r.TimeWindowDays,
		DistanceThresholdKm: r.DistanceThresholdKm,
		TotalObjects:        r.TotalObjects,
		CandidatesFound:     r.CandidatesFound,
		ConjunctionsFound:   r.ConjunctionsFound,
		CreatedAt:           r.CreatedAt,
		ResultNote:          r.ResultNote.String,
		ErrorMessage:        r.ErrorMessage.String,
	}
	if r.StartedAt.Valid {
		job.StartedAt = &r.StartedAt.Time
	}
	if r.CompletedAt.Valid {
		job.CompletedAt = &r.CompletedAt.Time
	}
	return job
}

// CreateJob inserts a new PENDING screening job and returns its ID.
// Implements supervisor.Store.
func (s *Store) CreateJob(ctx context.Context, job models.ScreeningJob) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO screening_jobs (asset_id, status, time_window_days, distance_threshold_km)
		VALUES (:asset_id, :status, :window_days, :distance_threshold_km)`,
		map[string]any{
			"asset_id":            job.AssetID,
			"status":              string(models.JobPending),
			"window_days":         job.WindowDays,
			"distance_threshold_km": job.DistanceThresholdKm,
		})
	if err != nil {
		return 0, fmt.Errorf("eventstore: create job: %w", err)
	}
	return res.LastInsertId()
}

// UpdateJobProgress writes the latest progress fraction and counters for a
// running job. Implements supervisor.Store.
func (s *Store) UpdateJobProgress(ctx context.Context, jobID int64, progress float64, candidatesFound, conjunctionsFound int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE screening_jobs SET progress = ?, candidates_found = ?, conjunctions_found = ?
		WHERE id = ?`, progress, candidatesFound, conjunctionsFound, jobID)
	if err != nil {
		return fmt.Errorf("eventstore: update job %d progress: %w", jobID, err)
	}
	return nil
}

// MarkJobRunning transitions a job to RUNNING. Implements supervisor.Store.
func (s *Store) MarkJobRunning(ctx context.Context, jobID int64, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE screening_jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(models.JobRunning), startedAt, jobID)
	if err != nil {
		return fmt.Errorf("eventstore: mark job %d running: %w", jobID, err)
	}
	return nil
}

// CompleteJob transitions a job to COMPLETED. Implements supervisor.Store.
func (s *Store) CompleteJob(ctx context.Context, jobID int64, totalObjects int, note string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE screening_jobs SET status = ?, total_objects = ?, progress = 1.0,
			result_note = ?, completed_at = ? WHERE id = ?`,
		string(models.JobCompleted), totalObjects, note, completedAt, jobID)
	if err != nil {
		return fmt.Errorf("eventstore: complete job %d: %w", jobID, err)
	}
	return nil
}

// FailJob transitions a job to FAILED. Implements supervisor.Store.
func (s *Store) FailJob(ctx context.Context, jobID int64, errMsg string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE screening_jobs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		string(models.JobFailed), errMsg, completedAt, jobID)
	if err != nil {
		return fmt.Errorf("eventstore: fail job %d: %w", jobID, err)
	}
	return nil
}

// GetJob fetches a screening job by ID.
func (s *Store) GetJob(ctx context.Context, jobID int64) (models.ScreeningJob, error) {
	var row jobRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM screening_jobs WHERE id = ?`, jobID); err != nil {
		return models.ScreeningJob{}, fmt.Errorf("eventstore: get job %d: %w", jobID, err)
	}
	return row.toModel(), nil
}

// ListJobsForAsset returns every job run against an asset, newest first.
func (s *Store) ListJobsForAsset(ctx context.Context, assetID int64) ([]models.ScreeningJob, error) {
	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM screening_jobs WHERE asset_id = ? ORDER BY created_at DESC`, assetID); err != nil {
		return nil, fmt.Errorf("eventstore: list jobs for asset %d: %w", assetID, err)
	}
	out := make([]models.ScreeningJob, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
