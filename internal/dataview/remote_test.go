package dataview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	rows    []person
	queries []string
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]person, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	var out []person
	for _, p := range f.rows {
		if query == "" || strings.Contains(p.Name, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRemoteFilter(t *testing.T) {
	t.Run("routes queries to the source", func(t *testing.T) {
		v := newPersonView(t)
		src := &fakeSearcher{rows: sampleRows()}
		r := NewRemoteFilter(context.Background(), v, src)

		r.SetFilterQuery("nn")
		assert.Equal(t, []string{"nn"}, src.queries)
		assert.Equal(t, []int{1, 3}, ids(v.VisibleRows()))
		assert.Equal(t, "nn", r.Query())
		assert.Empty(t, v.Query(), "view filters nothing itself")
	})

	t.Run("no match loads an empty result", func(t *testing.T) {
		v := newPersonView(t)
		r := NewRemoteFilter(context.Background(), v, &fakeSearcher{rows: sampleRows()})
		r.SetFilterQuery("zzz")
		assert.True(t, v.Snapshot().NoMatches())
	})

	t.Run("view sort still applies", func(t *testing.T) {
		v := newPersonView(t)
		_, err := v.ToggleSort("id")
		require.NoError(t, err)
		_, err = v.ToggleSort("id")
		require.NoError(t, err)
		r := NewRemoteFilter(context.Background(), v, &fakeSearcher{rows: sampleRows()})
		r.SetFilterQuery("")
		assert.Equal(t, []int{3, 2, 1}, ids(v.VisibleRows()))
	})

	t.Run("source errors keep previous rows", func(t *testing.T) {
		v := newPersonView(t)
		src := &fakeSearcher{rows: sampleRows()}
		var failed []string
		r := NewRemoteFilter(context.Background(), v, src, WithErrorHandler[person](func(q string, err error) {
			failed = append(failed, q)
		}))
		r.SetFilterQuery("Bob")
		require.Equal(t, []int{2}, ids(v.VisibleRows()))

		src.err = errors.New("database is locked")
		r.SetFilterQuery("Ann")
		assert.Equal(t, []string{"Ann"}, failed)
		assert.Equal(t, []int{2}, ids(v.VisibleRows()))
	})

	t.Run("refresh re-runs the current query", func(t *testing.T) {
		v := newPersonView(t)
		src := &fakeSearcher{rows: sampleRows()}
		r := NewRemoteFilter(context.Background(), v, src)
		r.SetFilterQuery("Bob")
		src.rows = append(src.rows, person{ID: 9, Name: "Bobby"})
		r.Refresh()
		assert.Equal(t, []string{"Bob", "Bob"}, src.queries)
		assert.Equal(t, []int{2, 9}, ids(v.VisibleRows()))
	})
}
