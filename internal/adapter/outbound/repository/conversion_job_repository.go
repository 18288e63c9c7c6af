package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"esmconvert/internal/domain/entity"
	"esmconvert/internal/domain/valueobject"
	"esmconvert/internal/port/outbound"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLConversionJobRepository implements the ConversionJobRepository
// port over a pgx connection pool.
type PostgreSQLConversionJobRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLConversionJobRepository creates a new PostgreSQL conversion job repository.
func NewPostgreSQLConversionJobRepository(pool *pgxpool.Pool) *PostgreSQLConversionJobRepository {
	return &PostgreSQLConversionJobRepository{
		pool: pool,
	}
}

// Save inserts a conversion job.
func (r *PostgreSQLConversionJobRepository) Save(ctx context.Context, job *entity.ConversionJob) error {
	if job == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO esmconvert.conversion_jobs (
			id, module_path, source, status, output, error_message,
			started_at, completed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	qi := GetQueryInterface(ctx, r.pool)
	_, err := qi.Exec(ctx, query,
		job.ID(),
		job.ModulePath(),
		job.Source(),
		job.Status().String(),
		job.Output(),
		job.ErrorMessage(),
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return WrapError(err, "save conversion job")
	}

	return nil
}

// FindByID finds a conversion job by its ID. Returns nil without error when
// no job exists under the ID.
func (r *PostgreSQLConversionJobRepository) FindByID(
	ctx context.Context,
	id uuid.UUID,
) (*entity.ConversionJob, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT id, module_path, source, status, output, error_message,
			   started_at, completed_at, created_at, updated_at
		FROM esmconvert.conversion_jobs
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	job, err := scanConversionJob(qi.QueryRow(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find conversion job by ID")
	}

	return job, nil
}

// FindAll lists conversion jobs newest first, optionally filtered by status,
// returning the page plus the total count for the filter.
func (r *PostgreSQLConversionJobRepository) FindAll(
	ctx context.Context,
	filters outbound.ConversionJobFilters,
) ([]*entity.ConversionJob, int, error) {
	if filters.Limit <= 0 {
		return nil, 0, ErrInvalidArgument
	}
	if filters.Offset < 0 {
		return nil, 0, ErrInvalidArgument
	}

	var whereConditions []string
	var args []interface{}
	argIndex := 1

	if filters.Status != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status.String())
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = " WHERE " + strings.Join(whereConditions, " AND ")
	}

	qi := GetQueryInterface(ctx, r.pool)

	countQuery := "SELECT COUNT(*) FROM esmconvert.conversion_jobs" + whereClause

	var totalCount int
	if err := qi.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, WrapError(err, "count conversion jobs")
	}

	dataQuery := "SELECT id, module_path, source, status, output, error_message, " +
		"started_at, completed_at, created_at, updated_at " +
		"FROM esmconvert.conversion_jobs" + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := qi.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, WrapError(err, "list conversion jobs")
	}
	defer rows.Close()

	var jobs []*entity.ConversionJob
	for rows.Next() {
		job, scanErr := scanConversionJob(rows)
		if scanErr != nil {
			return nil, 0, WrapError(scanErr, "scan conversion job")
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, WrapError(rowsErr, "list conversion jobs")
	}

	return jobs, totalCount, nil
}

// Update persists the current state of a conversion job.
func (r *PostgreSQLConversionJobRepository) Update(ctx context.Context, job *entity.ConversionJob) error {
	if job == nil {
		return ErrInvalidArgument
	}

	query := `
		UPDATE esmconvert.conversion_jobs
		SET status = $2, output = $3, error_message = $4,
			started_at = $5, completed_at = $6, updated_at = $7
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, query,
		job.ID(),
		job.Status().String(),
		job.Output(),
		job.ErrorMessage(),
		job.StartedAt(),
		job.CompletedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return WrapError(err, "update conversion job")
	}
	if tag.RowsAffected() == 0 {
		return WrapError(ErrNotFound, "update conversion job")
	}

	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversionJob(row rowScanner) (*entity.ConversionJob, error) {
	var (
		id                     uuid.UUID
		modulePath, source     string
		statusStr              string
		output, errorMessage   *string
		startedAt, completedAt *time.Time
		createdAt, updatedAt   time.Time
	)

	err := row.Scan(
		&id, &modulePath, &source, &statusStr, &output, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	status, err := valueobject.NewJobStatus(statusStr)
	if err != nil {
		return nil, err
	}

	return entity.RestoreConversionJob(
		id, modulePath, source, status,
		output, errorMessage, startedAt, completedAt, createdAt, updatedAt,
	), nil
}
