package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifelog-api/models"
	"github.com/upb/lifelog-api/repositories"
	"go.uber.org/zap"
)

var degreeRowColumns = []string{"id", "institution", "title", "category", "year_completed", "location", "url"}

func TestDegreeRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDegreeRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, institution, title, category, year_completed, location, url FROM degrees ORDER BY year_completed, id`)).
		WillReturnRows(sqlmock.NewRows(degreeRowColumns).
			AddRow(int64(1), "MIT", "BSc Physics", "bachelor", "2010", nil, nil).
			AddRow(int64(2), "Coursera", "ML", "certificate", "2015", "Online", "https://example.com/cert"))

	degrees, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, degrees, 2)
	assert.Equal(t, "2010", degrees[0].YearCompleted)
	assert.Nil(t, degrees[0].Location)
	assert.Equal(t, "https://example.com/cert", *degrees[1].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDegreeRepository_Create(t *testing.T) {
	req := &models.CreateDegreeRequest{
		Institution:   "MIT",
		Title:         "BSc Physics",
		Category:      "bachelor",
		YearCompleted: "2010",
		Location:      strPtr("Cambridge"),
	}

	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDegreeRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO degrees (institution, title, category, year_completed, location, url)`)).
			WithArgs("MIT", "BSc Physics", "bachelor", "2010", "Cambridge", nil).
			WillReturnRows(sqlmock.NewRows(degreeRowColumns).
				AddRow(int64(9), "MIT", "BSc Physics", "bachelor", "2010", "Cambridge", nil))

		degree, err := repo.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(9), degree.ID)
		assert.Equal(t, "Cambridge", *degree.Location)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not null violation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDegreeRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO degrees`)).
			WillReturnError(&pq.Error{Code: "23502", Message: `null value in column "category" violates not-null constraint`})

		_, err := repo.Create(context.Background(), req)
		assert.ErrorIs(t, err, repositories.ErrConstraintViolation)
	})
}

func TestDegreeRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDegreeRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE degrees SET "location" = $1, "url" = $2 WHERE id = $3`)).
		WithArgs("Boston", "https://mit.edu", int64(1)).
		WillReturnRows(sqlmock.NewRows(degreeRowColumns).
			AddRow(int64(1), "MIT", "BSc Physics", "bachelor", "2010", "Boston", "https://mit.edu"))

	degree, err := repo.Update(context.Background(), 1, map[string]interface{}{
		"url":      "https://mit.edu",
		"location": "Boston",
	})
	require.NoError(t, err)
	assert.Equal(t, "Boston", *degree.Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDegreeRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDegreeRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM degrees WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate(t *testing.T) {
	query, args := buildUpdate("degrees", 7, map[string]interface{}{
		"title":    "MSc",
		"category": "master",
	}, "id")

	assert.Equal(t, `UPDATE degrees SET "category" = $1, "title" = $2 WHERE id = $3 RETURNING id`, query)
	assert.Equal(t, []interface{}{"master", "MSc", int64(7)}, args)
}
