package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/model"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func customerIDs(rows []model.Customer) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestSQLiteCache_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := NewSQLiteCache(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.RebuildCustomers(ctx, SeedCustomers(), "abc"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteCache(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	rows, err := second.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(SeedCustomers()))
}

func TestSQLiteCache_RebuildKeepsFileOrder(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	rows := []model.Customer{
		{ID: 30, Name: "C", Email: "c@x.io"},
		{ID: 10, Name: "A", Email: "a@x.io"},
		{ID: 20, Name: "B", Email: "b@x.io"},
	}
	require.NoError(t, cache.RebuildCustomers(ctx, rows, "fp1"))

	got, err := cache.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	t.Run("rebuild replaces rows", func(t *testing.T) {
		require.NoError(t, cache.RebuildCustomers(ctx, rows[:1], "fp2"))
		got, err := cache.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{30}, customerIDs(got))
	})

	t.Run("rebuild with no rows", func(t *testing.T) {
		require.NoError(t, cache.RebuildCustomers(ctx, []model.Customer{}, "fp3"))
		got, err := cache.ListCustomers(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestSQLiteCache_RebuildRollsBackOnDuplicateID(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.RebuildCustomers(ctx, SeedCustomers(), "good"))

	bad := []model.Customer{
		{ID: 1, Name: "A", Email: "a@x.io"},
		{ID: 1, Name: "B", Email: "b@x.io"},
	}
	require.Error(t, cache.RebuildCustomers(ctx, bad, "bad"))

	got, err := cache.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(SeedCustomers()))

	state, found, err := cache.SyncState(ctx, model.Customers)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "good", state.Fingerprint)
}

func TestSQLiteCache_FilterCustomers(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	rows := []model.Customer{
		{ID: 1, Name: "Ann Lee", Email: "ann@x.io"},
		{ID: 2, Name: "Bob Stone", Email: "bob@y.io"},
		{ID: 3, Name: "anna smith", Email: "as@x.io"},
		{ID: 4, Name: "100% Cotton", Email: "cotton@shop.io"},
		{ID: 5, Name: "Zed", Email: "z_ed@x.io"},
		{ID: 6, Name: `Back\slash`, Email: "bs@x.io"},
	}
	require.NoError(t, cache.RebuildCustomers(ctx, rows, "fp"))

	tests := []struct {
		query string
		want  []int64
	}{
		{"", []int64{1, 2, 3, 4, 5, 6}},
		{"ann", []int64{1, 3}},
		{"ANN", []int64{1, 3}},
		{"y.io", []int64{2}},
		{"%", []int64{4}},
		{"_", []int64{5}},
		{`\`, []int64{6}},
		{"nobody", []int64{}},
	}

	for _, tt := range tests {
		t.Run("query "+tt.query, func(t *testing.T) {
			got, err := cache.FilterCustomers(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, customerIDs(got))
		})
	}
}

func TestSQLiteCache_FilterEmployeesByDepartment(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.RebuildEmployees(ctx, SeedEmployees(), "fp"))

	all, err := cache.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedEmployees(), all)

	sales, err := cache.FilterEmployees(ctx, "sales")
	require.NoError(t, err)
	require.NotEmpty(t, sales)
	for _, e := range sales {
		assert.Equal(t, "Sales", e.Department)
	}
}

func TestSQLiteCache_SyncState(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, found, err := cache.SyncState(ctx, model.Employees)
	require.NoError(t, err)
	assert.False(t, found)

	before := time.Now().Add(-time.Second)
	require.NoError(t, cache.RebuildEmployees(ctx, SeedEmployees(), "f00d"))

	state, found, err := cache.SyncState(ctx, model.Employees)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.Employees, state.Dataset)
	assert.Equal(t, "f00d", state.Fingerprint)
	assert.Equal(t, len(SeedEmployees()), state.Rows)
	assert.True(t, state.SyncedAt.After(before))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\ ok`, escapeLike(`50% off_now \ ok`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestSearchableColumnsFollowModel(t *testing.T) {
	assert.Equal(t, []string{"name", "email"}, customersTable.searchable)
	assert.Equal(t, []string{"name", "department", "email"}, employeesTable.searchable)
	assert.Subset(t, customersTable.columns, customersTable.searchable)
	assert.Subset(t, employeesTable.columns, employeesTable.searchable)
}

func TestSQLiteCache_FilterMatchesInMemoryFilter(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.RebuildCustomers(ctx, SeedCustomers(), "c"))
	require.NoError(t, cache.RebuildEmployees(ctx, SeedEmployees(), "e"))

	customerCols := dataview.Columns[model.Customer](model.CustomerColumns())
	employeeCols := dataview.Columns[model.Employee](model.EmployeeColumns())

	for _, q := range []string{"ann", "X.IO", "example", "_", "sales", "employee0", "nobody"} {
		t.Run(q, func(t *testing.T) {
			gotC, err := cache.FilterCustomers(ctx, q)
			require.NoError(t, err)
			match := dataview.MatchQuery(q, customerCols)
			wantC := []int64{}
			for _, c := range SeedCustomers() {
				if match(c) {
					wantC = append(wantC, c.ID)
				}
			}
			assert.Equal(t, wantC, customerIDs(gotC))

			gotE, err := cache.FilterEmployees(ctx, q)
			require.NoError(t, err)
			matchE := dataview.MatchQuery(q, employeeCols)
			wantE, ids := []int64{}, []int64{}
			for _, e := range SeedEmployees() {
				if matchE(e) {
					wantE = append(wantE, e.ID)
				}
			}
			for _, e := range gotE {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, wantE, ids)
		})
	}
}
