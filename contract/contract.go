package contract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoID is returned by ParseID when the address does not end in a record id
var ErrNoID = errors.New("address has no record id")

// Content addressing for the task table
const (
	Scheme    = "content"
	Authority = "com.example.android.todolist"
	PathTasks = "tasks"
)

// Task table schema
const (
	TableName         = "tasks"
	ColumnID          = "_id"
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnPriority    = "priority"
	ColumnDone        = "done"
)

// Columns lists every column of the task table, identifier first.
var Columns = []string{ColumnID, ColumnTitle, ColumnDescription, ColumnPriority, ColumnDone}

// BaseURI returns content://<authority>
func BaseURI(authority string) string {
	return Scheme + "://" + authority
}

// ContentURI returns the collection address for the tasks table.
func ContentURI(authority string) string {
	return BaseURI(authority) + "/" + PathTasks
}

// WithAppendedID appends a record identifier to a collection address.
func WithAppendedID(base string, id int64) string {
	return strings.TrimRight(base, "/") + "/" + strconv.FormatInt(id, 10)
}

// ParseID returns the record id in the last path segment of uri.
func ParseID(uri string) (int64, error) {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	last := uri[strings.LastIndex(uri, "/")+1:]
	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoID, uri)
	}
	return id, nil
}
