package store

import (
	"errors"
	"testing"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    int64  `json:"id"`
	Group string `json:"group"`
}

func (*row) SchemaName() string { return "row" }

func (r *row) PrimaryKey() schema.Key { return schema.IntKey(r.ID) }

// sliceScanner serves a fixed set of records and counts scans.
type sliceScanner struct {
	recs  []schema.Record
	scans int
}

func (s *sliceScanner) Scan(name string, fn func(rec schema.Record) error) error {
	s.scans++

	for _, rec := range s.recs {
		if rec.SchemaName() != name {
			continue
		}

		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

func rows(groups ...string) *sliceScanner {
	s := &sliceScanner{}
	for i, g := range groups {
		s.recs = append(s.recs, &row{ID: int64(i + 1), Group: g})
	}

	return s
}

func ids(t *testing.T, r *Results) []int64 {
	t.Helper()

	keys, err := r.Keys()
	require.NoError(t, err)

	out := make([]int64, len(keys))
	for i, k := range keys {
		out[i] = k.Int()
	}

	return out
}

func inGroup(g string) func(schema.Record) bool {
	return func(rec schema.Record) bool { return rec.(*row).Group == g }
}

func TestResultsIsLazy(t *testing.T) {
	src := rows("a", "b")

	r := NewResults(src, "row").Where(inGroup("a")).Limit(1)
	assert.Equal(t, 0, src.scans)

	_, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, src.scans)

	src.recs = append(src.recs, &row{ID: 9, Group: "a"})

	n, err := NewResults(src, "row").Where(inGroup("a")).Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestResultsWhereAndLimit(t *testing.T) {
	src := rows("a", "b", "a", "a", "b")
	all := NewResults(src, "row")

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, all))
	assert.Equal(t, []int64{1, 3, 4}, ids(t, all.Where(inGroup("a"))))
	assert.Equal(t, []int64{1, 3}, ids(t, all.Where(inGroup("a")).Limit(2)))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, all.Limit(0)))

	// Views are immutable.
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, all))
}

func TestResultsOrderBy(t *testing.T) {
	src := rows("c", "a", "b", "a")

	byGroupDesc := func(a, b schema.Record) bool { return a.(*row).Group > b.(*row).Group }

	r := NewResults(src, "row").OrderBy(byGroupDesc)
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(t, r))
	assert.Equal(t, []int64{1, 3}, ids(t, r.Limit(2)))

	first, err := r.Where(inGroup("a")).First()
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.(*row).ID)
}

func TestResultsFirstOnEmpty(t *testing.T) {
	first, err := NewResults(rows(), "row").First()
	require.NoError(t, err)
	assert.Nil(t, first)
}

func TestResultsEachStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	seen := 0

	err := NewResults(rows("a", "a", "a"), "row").Each(func(schema.Record) error {
		seen++
		if seen == 2 {
			return boom
		}

		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, seen)
}

func TestResultsOnSwitchesSource(t *testing.T) {
	a := rows("x")
	b := rows("x", "x", "x")

	r := NewResults(a, "row").Where(inGroup("x"))

	n, err := r.On(b).Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "row", r.On(b).Schema())

	n, err = r.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
