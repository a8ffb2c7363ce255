package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/upb/lifelog-api/repositories"
)

// PostgreSQL SQLSTATE classes that mean the submitted values were rejected
const (
	classDataException      = "22"
	classIntegrityViolation = "23"
)

// classifyError maps driver failures onto the repository sentinels.
// Anything it does not recognize is returned wrapped but unclassified.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case classDataException, classIntegrityViolation:
			return fmt.Errorf("%s: %w: %s (%s)", op, repositories.ErrConstraintViolation, pqErr.Message, pqErr.Code.Name())
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// buildUpdate renders "UPDATE <table> SET a = $1, b = $2 WHERE id = $3 RETURNING <returning>".
// Columns are sorted so the statement is deterministic; callers restrict keys beforehand.
func buildUpdate(table string, id int64, changes map[string]interface{}, returning string) (string, []interface{}) {
	columns := make([]string, 0, len(changes))
	for column := range changes {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for i, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(column), i+1))
		args = append(args, changes[column])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(assignments, ", "), len(args), returning)
	return query, args
}
