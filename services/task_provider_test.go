package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"todolist/contract"
	"todolist/database"
	"todolist/matcher"
	"todolist/models"
	"todolist/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tasksURI = "content://com.example.android.todolist/tasks"
)

// ==================== MOCKS ====================

// MockTaskRepository is a mock implementation of TaskRepository interface
type MockTaskRepository struct {
	mock.Mock
}

// Ensure MockTaskRepository implements TaskRepository interface
var _ TaskRepository = (*MockTaskRepository)(nil)

func (m *MockTaskRepository) InsertTask(ctx context.Context, values models.Values) (int64, error) {
	args := m.Called(ctx, values)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) QueryTasks(ctx context.Context, q models.Query) (*database.Cursor, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Cursor), args.Error(1)
}

// MockNotifier is a mock implementation of ChangeNotifier interface
type MockNotifier struct {
	mock.Mock
}

var _ ChangeNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) Register(uri string, observer notify.Observer, notifyForDescendants bool) func() {
	args := m.Called(uri, observer, notifyForDescendants)
	return args.Get(0).(func())
}

func (m *MockNotifier) NotifyChange(ctx context.Context, uri string) {
	m.Called(ctx, uri)
}

func newTestMatcher() *matcher.Matcher {
	return matcher.New(contract.Scheme, contract.Authority, contract.PathTasks)
}

// setupTestProvider wires a provider to a real database and notifier
func setupTestProvider(t *testing.T) (*TaskProvider, *notify.Notifier) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "todolist-services-*")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tmpDir)
	})

	notifier := notify.NewNotifier(nil)
	provider := NewTaskProvider(newTestMatcher(), database.NewRepository(db), notifier, nil)
	return provider, notifier
}

func fetch(t *testing.T, p *TaskProvider, uri string, q models.Query) []models.Record {
	t.Helper()
	cursor, err := p.Query(context.Background(), uri, q)
	require.NoError(t, err)
	defer cursor.Close()

	records, err := cursor.Collect()
	require.NoError(t, err)
	return records
}

// ==================== TESTS ====================

func TestTaskProvider_Insert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		uri           string
		values        models.Values
		mockSetup     func(*MockTaskRepository, *MockNotifier)
		expectedURI   string
		expectedError error
	}{
		{
			name:   "Success - returns record address and notifies collection",
			uri:    tasksURI,
			values: models.Values{"title": "Buy milk"},
			mockSetup: func(repo *MockTaskRepository, n *MockNotifier) {
				repo.On("InsertTask", ctx, models.Values{"title": "Buy milk"}).Return(int64(1), nil)
				n.On("NotifyChange", ctx, tasksURI).Return()
			},
			expectedURI: tasksURI + "/1",
		},
		{
			name:   "Scheme-less address is canonicalised",
			uri:    "com.example.android.todolist/tasks/",
			values: models.Values{"title": "x"},
			mockSetup: func(repo *MockTaskRepository, n *MockNotifier) {
				repo.On("InsertTask", ctx, models.Values{"title": "x"}).Return(int64(5), nil)
				n.On("NotifyChange", ctx, tasksURI).Return()
			},
			expectedURI: tasksURI + "/5",
		},
		{
			name:          "Single record address is rejected",
			uri:           tasksURI + "/1",
			values:        models.Values{"title": "x"},
			mockSetup:     func(repo *MockTaskRepository, n *MockNotifier) {},
			expectedError: ErrUnrecognizedAddress,
		},
		{
			name:          "Unknown address is rejected",
			uri:           "content://com.example.android.todolist/notes",
			values:        models.Values{"title": "x"},
			mockSetup:     func(repo *MockTaskRepository, n *MockNotifier) {},
			expectedError: ErrUnrecognizedAddress,
		},
		{
			name:   "Store error becomes InsertFailed",
			uri:    tasksURI,
			values: models.Values{"title": "x"},
			mockSetup: func(repo *MockTaskRepository, n *MockNotifier) {
				repo.On("InsertTask", ctx, models.Values{"title": "x"}).Return(int64(0), errors.New("disk full"))
			},
			expectedError: ErrInsertFailed,
		},
		{
			name:   "Non-positive id becomes InsertFailed",
			uri:    tasksURI,
			values: models.Values{"title": "x"},
			mockSetup: func(repo *MockTaskRepository, n *MockNotifier) {
				repo.On("InsertTask", ctx, models.Values{"title": "x"}).Return(int64(-1), nil)
			},
			expectedError: ErrInsertFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTaskRepository)
			n := new(MockNotifier)
			tt.mockSetup(repo, n)

			provider := NewTaskProvider(newTestMatcher(), repo, n, nil)
			uri, err := provider.Insert(ctx, tt.uri, tt.values)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, uri)
				n.AssertNotCalled(t, "NotifyChange", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedURI, uri)
			}

			repo.AssertExpectations(t)
			n.AssertExpectations(t)
		})
	}
}

func TestTaskProvider_Insert_UnrecognizedAddressSkipsStore(t *testing.T) {
	repo := new(MockTaskRepository)
	provider := NewTaskProvider(newTestMatcher(), repo, nil, nil)

	for _, uri := range []string{"", "content://x/tasks", tasksURI + "/abc", tasksURI + "/1/2"} {
		_, err := provider.Insert(context.Background(), uri, models.Values{"title": "x"})
		assert.ErrorIs(t, err, ErrUnrecognizedAddress)
		_, err = provider.Query(context.Background(), uri, models.Query{})
		assert.ErrorIs(t, err, ErrUnrecognizedAddress)
	}

	repo.AssertNotCalled(t, "InsertTask", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "QueryTasks", mock.Anything, mock.Anything)
}

func TestTaskProvider_Query_SelectionHandling(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("stop")

	t.Run("Collection passes the caller's selection through", func(t *testing.T) {
		repo := new(MockTaskRepository)
		q := models.Query{Projection: []string{"title"}, Selection: "priority > ?", SelectionArgs: []string{"1"}, SortOrder: "priority DESC"}
		repo.On("QueryTasks", ctx, q).Return(nil, storeErr)

		provider := NewTaskProvider(newTestMatcher(), repo, nil, nil)
		_, err := provider.Query(ctx, tasksURI, q)
		assert.ErrorIs(t, err, storeErr)
		repo.AssertExpectations(t)
	})

	t.Run("Single record overrides the caller's selection", func(t *testing.T) {
		repo := new(MockTaskRepository)
		expected := models.Query{
			Projection:    []string{"title"},
			Selection:     "_id = ?",
			SelectionArgs: []string{"7"},
			SortOrder:     "priority DESC",
		}
		repo.On("QueryTasks", ctx, expected).Return(nil, storeErr)

		provider := NewTaskProvider(newTestMatcher(), repo, nil, nil)
		_, err := provider.Query(ctx, tasksURI+"/7", models.Query{
			Projection:    []string{"title"},
			Selection:     "title = ?",
			SelectionArgs: []string{"anything"},
			SortOrder:     "priority DESC",
		})
		assert.ErrorIs(t, err, storeErr)
		repo.AssertExpectations(t)
	})
}

func TestTaskProvider_NotImplemented(t *testing.T) {
	provider := NewTaskProvider(newTestMatcher(), new(MockTaskRepository), nil, nil)
	ctx := context.Background()

	for _, uri := range []string{tasksURI, tasksURI + "/1", "garbage"} {
		_, err := provider.Delete(ctx, uri, "", nil)
		assert.ErrorIs(t, err, ErrNotImplemented)

		_, err = provider.Update(ctx, uri, models.Values{"title": "x"}, "", nil)
		assert.ErrorIs(t, err, ErrNotImplemented)

		_, err = provider.GetType(uri)
		assert.ErrorIs(t, err, ErrNotImplemented)
	}
}

func TestTaskProvider_ErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrUnrecognizedAddress, ErrInsertFailed))
	assert.False(t, errors.Is(ErrInsertFailed, ErrNotImplemented))
	assert.False(t, errors.Is(ErrNotImplemented, ErrUnrecognizedAddress))
}

// ==================== INTEGRATION ====================

func TestTaskProvider_InsertThenFetch(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	uri, err := provider.Insert(ctx, tasksURI, models.Values{"title": "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, tasksURI+"/1", uri)

	records := fetch(t, provider, uri, models.Query{})
	assert.Equal(t, []models.Record{{"_id": int64(1), "title": "Buy milk"}}, records)

	records = fetch(t, provider, tasksURI+"/2", models.Query{})
	assert.Empty(t, records)
}

func TestTaskProvider_FetchCollection(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	first, err := provider.Insert(ctx, tasksURI, models.Values{"title": "A", "priority": 1})
	require.NoError(t, err)
	second, err := provider.Insert(ctx, tasksURI, models.Values{"title": "B", "priority": 2})
	require.NoError(t, err)
	assert.Equal(t, tasksURI+"/1", first)
	assert.Equal(t, tasksURI+"/2", second)

	records := fetch(t, provider, tasksURI, models.Query{})
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0]["title"])
	assert.Equal(t, "B", records[1]["title"])

	records = fetch(t, provider, tasksURI, models.Query{SortOrder: "priority DESC"})
	require.Len(t, records, 2)
	assert.Equal(t, "B", records[0]["title"])

	t.Run("Single record ignores a filter that would exclude it", func(t *testing.T) {
		records := fetch(t, provider, tasksURI+"/1", models.Query{Selection: "title = ?", SelectionArgs: []string{"B"}})
		require.Len(t, records, 1)
		assert.Equal(t, "A", records[0]["title"])
	})
}

func TestTaskProvider_InsertRejectsIdentifier(t *testing.T) {
	provider, _ := setupTestProvider(t)

	_, err := provider.Insert(context.Background(), tasksURI, models.Values{"_id": 3, "title": "x"})
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.ErrorIs(t, err, database.ErrIdentifierAssigned)
}

func TestTaskProvider_QueryCannotDelete(t *testing.T) {
	provider, notifier := setupTestProvider(t)
	ctx := context.Background()

	_, err := provider.Insert(ctx, tasksURI, models.Values{"title": "Buy milk"})
	require.NoError(t, err)

	_, err = provider.Query(ctx, tasksURI, models.Query{Selection: "1); DELETE FROM tasks RETURNING _id --"})
	assert.ErrorIs(t, err, database.ErrInvalidSelection)
	assert.Zero(t, notifier.Count(), "rejected query must not leave an observer behind")

	records := fetch(t, provider, tasksURI, models.Query{})
	assert.Equal(t, []models.Record{{"_id": int64(1), "title": "Buy milk"}}, records)
}

func TestTaskProvider_InsertThenFetch_AllColumns(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	values := models.Values{"title": "Pay rent", "description": "by the 1st", "priority": int64(3), "done": true}
	uri, err := provider.Insert(ctx, tasksURI, values)
	require.NoError(t, err)

	records := fetch(t, provider, uri, models.Query{})
	require.Len(t, records, 1)
	assert.Equal(t, models.Record{
		"_id":         int64(1),
		"title":       "Pay rent",
		"description": "by the 1st",
		"priority":    int64(3),
		"done":        true,
	}, records[0])
}

func TestTaskProvider_ConcurrentInserts(t *testing.T) {
	provider, _ := setupTestProvider(t)

	const n = 16
	uris := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uri, err := provider.Insert(context.Background(), tasksURI, models.Values{"priority": i})
			assert.NoError(t, err)
			uris[i] = uri
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, uri := range uris {
		assert.False(t, seen[uri], "duplicate address %s", uri)
		seen[uri] = true
	}

	records := fetch(t, provider, tasksURI, models.Query{})
	require.Len(t, records, n)
	ids := make([]int64, 0, n)
	for _, r := range records {
		ids = append(ids, r.ID())
	}
	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }))
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(n), ids[n-1])
}

func TestTaskProvider_CursorNotification(t *testing.T) {
	provider, notifier := setupTestProvider(t)
	ctx := context.Background()

	collection, err := provider.Query(ctx, tasksURI, models.Query{})
	require.NoError(t, err)
	record, err := provider.Query(ctx, tasksURI+"/1", models.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, notifier.Count())
	assert.Equal(t, tasksURI, collection.NotificationURI())
	assert.Equal(t, tasksURI+"/1", record.NotificationURI())

	var notified []string
	collection.OnChange(func(uri string) { notified = append(notified, uri) })

	_, err = provider.Insert(ctx, tasksURI, models.Values{"title": "new"})
	require.NoError(t, err)

	// delivered before Insert returned
	assert.Equal(t, []string{tasksURI}, notified)
	assert.True(t, collection.Stale())
	assert.True(t, record.Stale())

	require.NoError(t, collection.Requery(ctx))
	records, err := collection.Collect()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, collection.Close())
	require.NoError(t, record.Close())
	assert.Zero(t, notifier.Count())
}
