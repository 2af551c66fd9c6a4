package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"todolist/contract"
	"todolist/database"
	"todolist/matcher"
	"todolist/models"
)

// TaskProvider exposes the tasks table through content addresses.
// It resolves the address, runs one statement against the repository and,
// for inserts, notifies observers before returning.
type TaskProvider struct {
	matcher  *matcher.Matcher
	repo     TaskRepository
	notifier ChangeNotifier
	logger   *slog.Logger
}

// NewTaskProvider creates a new task provider. notifier may be nil.
func NewTaskProvider(m *matcher.Matcher, repo TaskRepository, notifier ChangeNotifier, logger *slog.Logger) *TaskProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskProvider{
		matcher:  m,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Authority returns the content authority served by this provider
func (p *TaskProvider) Authority() string {
	return p.matcher.Authority()
}

// ContentURI returns the collection address
func (p *TaskProvider) ContentURI() string {
	return contract.ContentURI(p.matcher.Authority())
}

// Resolve classifies uri without touching the store
func (p *TaskProvider) Resolve(uri string) (matcher.Match, error) {
	match, err := p.matcher.Match(uri)
	if err != nil {
		return match, fmt.Errorf("%w: %s", ErrUnrecognizedAddress, uri)
	}
	return match, nil
}

func (p *TaskProvider) resolve(ctx context.Context, op, uri string) (matcher.Match, error) {
	match, err := p.Resolve(uri)
	if err != nil {
		p.logger.DebugContext(ctx, "request failed", "op", op, "uri", uri, "error", err)
		return match, err
	}
	p.logger.DebugContext(ctx, "request resolved", "op", op, "uri", uri, "kind", match.Kind.String())
	return match, nil
}

// canonical rebuilds the address in content://authority/tasks[/id] form
func (p *TaskProvider) canonical(match matcher.Match) string {
	if match.Kind == matcher.SingleRecord {
		return contract.WithAppendedID(p.ContentURI(), match.ID)
	}
	return p.ContentURI()
}

// Insert adds a row to the collection at uri and returns the new row's address.
func (p *TaskProvider) Insert(ctx context.Context, uri string, values models.Values) (string, error) {
	match, err := p.resolve(ctx, "insert", uri)
	if err != nil {
		return "", err
	}
	if match.Kind != matcher.Collection {
		return "", fmt.Errorf("%w: %s", ErrUnrecognizedAddress, uri)
	}

	id, err := p.repo.InsertTask(ctx, values)
	if err != nil {
		p.logger.DebugContext(ctx, "request failed", "op", "insert", "uri", uri, "error", err)
		return "", fmt.Errorf("%w into %s: %w", ErrInsertFailed, uri, err)
	}
	if id <= 0 {
		p.logger.DebugContext(ctx, "request failed", "op", "insert", "uri", uri, "id", id)
		return "", fmt.Errorf("%w into %s", ErrInsertFailed, uri)
	}

	collection := p.canonical(match)
	if p.notifier != nil {
		p.notifier.NotifyChange(ctx, collection)
	}

	p.logger.DebugContext(ctx, "request completed", "op", "insert", "uri", uri, "id", id)
	return contract.WithAppendedID(collection, id), nil
}

// Query fetches rows addressed by uri. A single-record address replaces the
// caller's selection with an identifier match. The returned cursor watches
// uri for changes until it is closed.
func (p *TaskProvider) Query(ctx context.Context, uri string, q models.Query) (*database.Cursor, error) {
	match, err := p.resolve(ctx, "query", uri)
	if err != nil {
		return nil, err
	}

	switch match.Kind {
	case matcher.Collection:
	case matcher.SingleRecord:
		q.Selection = contract.ColumnID + " = ?"
		q.SelectionArgs = []string{strconv.FormatInt(match.ID, 10)}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedAddress, uri)
	}

	cursor, err := p.repo.QueryTasks(ctx, q)
	if err != nil {
		p.logger.DebugContext(ctx, "request failed", "op", "query", "uri", uri, "error", err)
		return nil, fmt.Errorf("query %s: %w", uri, err)
	}

	if p.notifier != nil {
		watched := p.canonical(match)
		cursor.SetNotificationURI(watched, p.notifier.Register(watched, cursor, true))
	}

	p.logger.DebugContext(ctx, "request completed", "op", "query", "uri", uri)
	return cursor, nil
}

// Delete is not supported
func (p *TaskProvider) Delete(ctx context.Context, uri string, selection string, selectionArgs []string) (int64, error) {
	return 0, fmt.Errorf("delete %s: %w", uri, ErrNotImplemented)
}

// Update is not supported
func (p *TaskProvider) Update(ctx context.Context, uri string, values models.Values, selection string, selectionArgs []string) (int64, error) {
	return 0, fmt.Errorf("update %s: %w", uri, ErrNotImplemented)
}

// GetType is not supported
func (p *TaskProvider) GetType(uri string) (string, error) {
	return "", fmt.Errorf("get type %s: %w", uri, ErrNotImplemented)
}
