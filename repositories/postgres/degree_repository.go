package postgres

import (
	"context"
	"fmt"

	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

const degreeColumns = "id, institution, title, category, year_completed, location, url"

// DegreeRepository implements repositories.DegreeRepository
type DegreeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDegreeRepository creates a new degree repository
func NewDegreeRepository(db *DB, logger *zap.Logger) repositories.DegreeRepository {
	return &DegreeRepository{
		db:     db,
		logger: logger,
	}
}

func scanDegree(row rowScanner) (*models.Degree, error) {
	degree := &models.Degree{}
	err := row.Scan(
		&degree.ID,
		&degree.Institution,
		&degree.Title,
		&degree.Category,
		&degree.YearCompleted,
		&degree.Location,
		&degree.URL,
	)
	if err != nil {
		return nil, err
	}
	return degree, nil
}

// List retrieves all degrees ordered by completion year
func (r *DegreeRepository) List(ctx context.Context) ([]*models.Degree, error) {
	query := `SELECT ` + degreeColumns + ` FROM degrees ORDER BY year_completed, id`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError("failed to list degrees", err)
	}
	defer rows.Close()

	degrees := make([]*models.Degree, 0)
	for rows.Next() {
		degree, err := scanDegree(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan degree: %w", err)
		}
		degrees = append(degrees, degree)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating degree rows: %w", err)
	}

	return degrees, nil
}

// GetByID retrieves a degree by ID
func (r *DegreeRepository) GetByID(ctx context.Context, id int64) (*models.Degree, error) {
	query := `SELECT ` + degreeColumns + ` FROM degrees WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	degree, err := scanDegree(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to get degree %d", id), err)
	}

	return degree, nil
}

// Create inserts a new degree
func (r *DegreeRepository) Create(ctx context.Context, req *models.CreateDegreeRequest) (*models.Degree, error) {
	query := `
		INSERT INTO degrees (institution, title, category, year_completed, location, url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + degreeColumns

	executor := GetExecutor(ctx, r.db)
	degree, err := scanDegree(executor.QueryRowContext(ctx, query,
		req.Institution,
		req.Title,
		req.Category,
		req.YearCompleted,
		req.Location,
		req.URL,
	))
	if err != nil {
		return nil, classifyError("failed to create degree", err)
	}

	r.logger.Debug("degree created", zap.Int64("id", degree.ID), zap.String("title", degree.Title))
	return degree, nil
}

// Update applies column changes to a degree
func (r *DegreeRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) (*models.Degree, error) {
	if len(changes) == 0 {
		return r.GetByID(ctx, id)
	}

	query, args := buildUpdate("degrees", id, changes, degreeColumns)

	executor := GetExecutor(ctx, r.db)
	degree, err := scanDegree(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to update degree %d", id), err)
	}

	r.logger.Debug("degree updated", zap.Int64("id", id), zap.Int("fields", len(changes)))
	return degree, nil
}

// Delete deletes a degree
func (r *DegreeRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM degrees WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return classifyError(fmt.Sprintf("failed to delete degree %d", id), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("degree %d: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("degree deleted", zap.Int64("id", id))
	return nil
}
