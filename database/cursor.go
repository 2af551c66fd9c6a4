package database

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"sync"

	"todolist/models"
)

// ErrCursorClosed is returned when a closed cursor is used again
var ErrCursorClosed = errors.New("cursor is closed")

// Cursor is a lazy, finite, single-pass view over a query result.
// Requery restarts it from the first row. A cursor can be attached to a
// notification address; a change there marks it stale and runs its listeners.
type Cursor struct {
	db    *DB
	query string
	args  []any

	rows    *sql.Rows
	columns []string
	current models.Record
	err     error
	closed  bool

	mu         sync.Mutex
	stale      bool
	listeners  []func(uri string)
	notifyURI  string
	unregister func()
}

func openCursor(ctx context.Context, db *DB, query string, args []any) (*Cursor, error) {
	c := &Cursor{db: db, query: query, args: args}
	if err := c.open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) open(ctx context.Context) error {
	rows, err := c.db.Reader().QueryContext(ctx, c.query, c.args...)
	if err != nil {
		return err
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return err
	}
	c.rows = rows
	c.columns = columns
	c.current = nil
	c.err = nil
	return nil
}

// Columns returns the projected column names in result order
func (c *Cursor) Columns() []string {
	return c.columns
}

// Next advances to the next row. It returns false when the result is
// exhausted or an error occurred; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.closed || c.rows == nil || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.current = nil
		return false
	}

	raw := make([]any, len(c.columns))
	dest := make([]any, len(c.columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		c.err = err
		c.current = nil
		return false
	}

	record := make(models.Record, len(c.columns))
	for i, name := range c.columns {
		switch v := raw[i].(type) {
		case nil:
			continue
		case []byte:
			record[name] = string(v)
		default:
			record[name] = v
		}
	}
	c.current = record
	return true
}

// Record returns the row at the current position
func (c *Cursor) Record() models.Record {
	return c.current
}

// Err returns the error, if any, that stopped iteration
func (c *Cursor) Err() error {
	return c.err
}

// All iterates the remaining rows. The sequence ends after the first error.
func (c *Cursor) All() iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		if c.closed {
			yield(nil, ErrCursorClosed)
			return
		}
		for c.Next() {
			if !yield(c.current, nil) {
				return
			}
		}
		if c.err != nil {
			yield(nil, c.err)
		}
	}
}

// Collect drains the remaining rows into a slice. It never returns nil on success.
func (c *Cursor) Collect() ([]models.Record, error) {
	records := make([]models.Record, 0)
	for record, err := range c.All() {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Requery re-runs the query and rewinds the cursor. It clears the stale flag.
func (c *Cursor) Requery(ctx context.Context) error {
	if c.closed {
		return ErrCursorClosed
	}
	if c.rows != nil {
		c.rows.Close()
	}
	if err := c.open(ctx); err != nil {
		c.rows = nil
		return err
	}
	c.mu.Lock()
	c.stale = false
	c.mu.Unlock()
	return nil
}

// Close releases the underlying rows and detaches the cursor from its notification address.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.mu.Lock()
	unregister := c.unregister
	c.unregister = nil
	c.mu.Unlock()
	if unregister != nil {
		unregister()
	}

	if c.rows == nil {
		return nil
	}
	return c.rows.Close()
}

// ==================== CHANGE NOTIFICATION ====================

// SetNotificationURI records the address the cursor watches and the function
// that detaches it. Any previous registration is released first.
func (c *Cursor) SetNotificationURI(uri string, unregister func()) {
	c.mu.Lock()
	prev := c.unregister
	c.notifyURI = uri
	c.unregister = unregister
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// NotificationURI returns the watched address, or "" when none is set
func (c *Cursor) NotificationURI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifyURI
}

// OnChange adds a listener that runs each time the watched address changes
func (c *Cursor) OnChange(fn func(uri string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Stale reports whether a change arrived since the cursor was opened or requeried
func (c *Cursor) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Changed marks the cursor stale and runs its listeners.
func (c *Cursor) Changed(uri string) {
	c.mu.Lock()
	c.stale = true
	listeners := append([]func(string){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(uri)
	}
}
