package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

// ErrDuplicate reports a violated unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

// wrapWrite annotates err with op and maps unique violations onto ErrDuplicate.
func wrapWrite(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// execConditional runs a guarded update and reports sql.ErrNoRows when the
// guard matched nothing.
func execConditional(ctx context.Context, exec database.Executor, op, query string, args ...interface{}) error {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapWrite(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func pageWindow(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

func openEnrollmentStatuses() []interface{} {
	return []interface{}{"pending_faculty", "pending_advisor", "enrolled"}
}
