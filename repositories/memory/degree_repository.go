package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

var (
	degreeInstitution   = column{name: "institution", maxLen: 200, notNull: true}
	degreeTitle         = column{name: "title", maxLen: 500, notNull: true}
	degreeCategory      = column{name: "category", maxLen: 50, notNull: true}
	degreeYearCompleted = column{name: "year_completed", maxLen: 4, notNull: true}
	degreeLocation      = column{name: "location", maxLen: 200}
	degreeURL           = column{name: "url", maxLen: 1024}
)

type degreeRow models.Degree

// DegreeRepository implements repositories.DegreeRepository in memory
type DegreeRepository struct {
	store *Store
}

func (row degreeRow) toModel() *models.Degree {
	degree := models.Degree(row)
	return &degree
}

func (s *Store) degreeTitleTaken(title string, exceptID int64) bool {
	for id, row := range s.degrees {
		if id != exceptID && row.Title == title {
			return true
		}
	}
	return false
}

// List returns degrees ordered by completion year, then id
func (r *DegreeRepository) List(ctx context.Context) ([]*models.Degree, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	degrees := make([]*models.Degree, 0, len(r.store.degrees))
	for _, row := range r.store.degrees {
		degrees = append(degrees, row.toModel())
	}
	sort.Slice(degrees, func(i, j int) bool {
		if degrees[i].YearCompleted != degrees[j].YearCompleted {
			return degrees[i].YearCompleted < degrees[j].YearCompleted
		}
		return degrees[i].ID < degrees[j].ID
	})
	return degrees, nil
}

// GetByID retrieves a degree by ID
func (r *DegreeRepository) GetByID(ctx context.Context, id int64) (*models.Degree, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.degrees[id]
	if !ok {
		return nil, fmt.Errorf("degree %d: %w", id, repositories.ErrNotFound)
	}
	return row.toModel(), nil
}

// Create inserts a new degree
func (r *DegreeRepository) Create(ctx context.Context, req *models.CreateDegreeRequest) (*models.Degree, error) {
	var (
		row degreeRow
		err error
	)
	if row.Institution, err = requiredText(degreeInstitution, req.Institution); err != nil {
		return nil, err
	}
	if row.Title, err = requiredText(degreeTitle, req.Title); err != nil {
		return nil, err
	}
	if row.Category, err = requiredText(degreeCategory, req.Category); err != nil {
		return nil, err
	}
	if row.YearCompleted, err = requiredText(degreeYearCompleted, req.YearCompleted); err != nil {
		return nil, err
	}
	if row.Location, err = toText(degreeLocation, req.Location); err != nil {
		return nil, err
	}
	if row.URL, err = toText(degreeURL, req.URL); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.degreeTitleTaken(row.Title, 0) {
		return nil, fmt.Errorf("%w: duplicate degree title %q", repositories.ErrConstraintViolation, row.Title)
	}

	row.ID = r.store.nextDegreeID
	r.store.degrees[row.ID] = row
	r.store.nextDegreeID++

	r.store.logger.Debug("degree created", zap.Int64("id", row.ID), zap.String("title", row.Title))
	return row.toModel(), nil
}

// Update applies column changes to a degree; either all apply or none do
func (r *DegreeRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) (*models.Degree, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.degrees[id]
	if !ok {
		return nil, fmt.Errorf("degree %d: %w", id, repositories.ErrNotFound)
	}

	for key, value := range changes {
		var err error
		switch key {
		case degreeInstitution.name:
			row.Institution, err = requiredText(degreeInstitution, value)
		case degreeTitle.name:
			row.Title, err = requiredText(degreeTitle, value)
		case degreeCategory.name:
			row.Category, err = requiredText(degreeCategory, value)
		case degreeYearCompleted.name:
			row.YearCompleted, err = requiredText(degreeYearCompleted, value)
		case degreeLocation.name:
			row.Location, err = toText(degreeLocation, value)
		case degreeURL.name:
			row.URL, err = toText(degreeURL, value)
		default:
			err = fmt.Errorf("%w: column %q does not exist", repositories.ErrConstraintViolation, key)
		}
		if err != nil {
			return nil, err
		}
	}

	if r.store.degreeTitleTaken(row.Title, id) {
		return nil, fmt.Errorf("%w: duplicate degree title %q", repositories.ErrConstraintViolation, row.Title)
	}

	r.store.degrees[id] = row
	r.store.logger.Debug("degree updated", zap.Int64("id", id), zap.Int("fields", len(changes)))
	return row.toModel(), nil
}

// Delete deletes a degree
func (r *DegreeRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.degrees[id]; !ok {
		return fmt.Errorf("degree %d: %w", id, repositories.ErrNotFound)
	}
	delete(r.store.degrees, id)

	r.store.logger.Debug("degree deleted", zap.Int64("id", id))
	return nil
}
