package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"todolist/contract"
	"todolist/models"
)

var (
	ErrUnknownColumn      = errors.New("unknown column")
	ErrIdentifierAssigned = errors.New("identifier is assigned by the store")
	ErrInvalidValue       = errors.New("value is not a scalar")
	ErrInvalidSortOrder   = errors.New("invalid sort order")
	ErrInvalidSelection   = errors.New("invalid selection")
)

// Repository owns the tasks table. Inserts are serialized through writeMu;
// reads go straight to the pool and run concurrently under WAL.
type Repository struct {
	db      *DB
	writeMu sync.Mutex
	columns map[string]bool
}

func NewRepository(db *DB) *Repository {
	columns := make(map[string]bool, len(contract.Columns))
	for _, c := range contract.Columns {
		columns[c] = true
	}
	return &Repository{db: db, columns: columns}
}

// ==================== INSERT ====================

// InsertTask appends a row built from values and returns the new row id.
func (r *Repository) InsertTask(ctx context.Context, values models.Values) (int64, error) {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if k == contract.ColumnID {
			return 0, ErrIdentifierAssigned
		}
		if !r.columns[k] {
			return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
		if !isScalar(v) {
			return 0, fmt.Errorf("%w: column %q has type %T", ErrInvalidValue, k, v)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := "INSERT INTO " + contract.TableName + " DEFAULT VALUES"
	args := make([]any, 0, len(keys))
	if len(keys) > 0 {
		placeholders := make([]string, len(keys))
		for i, k := range keys {
			placeholders[i] = "?"
			args = append(args, values[k])
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			contract.TableName, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ==================== QUERY ====================

// QueryTasks runs a select over the tasks table and returns a cursor over the result.
// Rows come back in insertion order unless SortOrder says otherwise.
func (r *Repository) QueryTasks(ctx context.Context, q models.Query) (*Cursor, error) {
	query, args, err := r.buildSelect(q)
	if err != nil {
		return nil, err
	}
	return openCursor(ctx, r.db, query, args)
}

func (r *Repository) buildSelect(q models.Query) (string, []any, error) {
	projection := q.Projection
	if len(projection) == 0 {
		projection = contract.Columns
	}
	for _, c := range projection {
		if !r.columns[c] {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}

	if err := checkSelection(q.Selection); err != nil {
		return "", nil, err
	}

	orderBy, err := r.orderBy(q.SortOrder)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(projection, ", "))
	b.WriteString(" FROM ")
	b.WriteString(contract.TableName)
	if strings.TrimSpace(q.Selection) != "" {
		b.WriteString(" WHERE (")
		b.WriteString(q.Selection)
		b.WriteString(")")
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy)

	args := make([]any, len(q.SelectionArgs))
	for i, a := range q.SelectionArgs {
		args[i] = a
	}
	return b.String(), args, nil
}

// checkSelection keeps a selection to a single predicate: no statement
// separators and no comments that could swallow the rest of the statement.
func checkSelection(selection string) error {
	for _, token := range []string{";", "--", "/*"} {
		if strings.Contains(selection, token) {
			return fmt.Errorf("%w: %q is not allowed", ErrInvalidSelection, token)
		}
	}
	return nil
}

// orderBy accepts "col [ASC|DESC], ..." over known columns only.
func (r *Repository) orderBy(sortOrder string) (string, error) {
	if strings.TrimSpace(sortOrder) == "" {
		return contract.ColumnID + " ASC", nil
	}

	terms := strings.Split(sortOrder, ",")
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 || len(fields) > 2 {
			return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, sortOrder)
		}
		if !r.columns[fields[0]] {
			return "", fmt.Errorf("%w: %q", ErrUnknownColumn, fields[0])
		}
		dir := "ASC"
		if len(fields) == 2 {
			dir = strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, sortOrder)
			}
		}
		out = append(out, fields[0]+" "+dir)
	}
	return strings.Join(out, ", "), nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, []byte, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32,
		float32, float64:
		return true
	default:
		return false
	}
}
