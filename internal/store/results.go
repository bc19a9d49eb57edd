package store

import (
	"errors"
	"sort"

	"github.com/inovacc/objrepo/internal/schema"
)

// Scanner streams every record of one schema in key order.
type Scanner interface {
	Scan(name string, fn func(rec schema.Record) error) error
}

var errStop = errors.New("stop")

// Results is a lazy view over the records of one schema. Nothing is read
// until one of Each, All, First, Count or Keys is called; every call reads
// the store again. Where, OrderBy and Limit return new views.
type Results struct {
	src   Scanner
	name  string
	preds []func(schema.Record) bool
	less  func(a, b schema.Record) bool
	limit int
}

func NewResults(src Scanner, name string) *Results {
	return &Results{src: src, name: name}
}

func (r *Results) Schema() string { return r.name }

func (r *Results) clone() *Results {
	c := *r
	c.preds = append([]func(schema.Record) bool(nil), r.preds...)

	return &c
}

// Where keeps the records for which pred returns true.
func (r *Results) Where(pred func(schema.Record) bool) *Results {
	c := r.clone()
	c.preds = append(c.preds, pred)

	return c
}

// OrderBy sorts the view. Without it records come in key order.
func (r *Results) OrderBy(less func(a, b schema.Record) bool) *Results {
	c := r.clone()
	c.less = less

	return c
}

// Limit caps the number of records; n <= 0 removes the cap.
func (r *Results) Limit(n int) *Results {
	c := r.clone()
	c.limit = n

	return c
}

// On returns the same view evaluated against src. Write scopes use it to
// read a range through their own transaction.
func (r *Results) On(src Scanner) *Results {
	c := r.clone()
	c.src = src

	return c
}

func (r *Results) match(rec schema.Record) bool {
	for _, pred := range r.preds {
		if !pred(rec) {
			return false
		}
	}

	return true
}

// Each calls fn for every record in the view. An error from fn stops the
// iteration and is returned.
func (r *Results) Each(fn func(rec schema.Record) error) error {
	if r.less != nil {
		return r.eachSorted(fn)
	}

	n := 0
	err := r.src.Scan(r.name, func(rec schema.Record) error {
		if !r.match(rec) {
			return nil
		}

		if err := fn(rec); err != nil {
			return err
		}

		n++
		if r.limit > 0 && n >= r.limit {
			return errStop
		}

		return nil
	})
	if errors.Is(err, errStop) {
		return nil
	}

	return err
}

func (r *Results) eachSorted(fn func(rec schema.Record) error) error {
	var recs []schema.Record

	err := r.src.Scan(r.name, func(rec schema.Record) error {
		if r.match(rec) {
			recs = append(recs, rec)
		}

		return nil
	})
	if err != nil {
		return err
	}

	sort.SliceStable(recs, func(i, j int) bool { return r.less(recs[i], recs[j]) })

	if r.limit > 0 && len(recs) > r.limit {
		recs = recs[:r.limit]
	}

	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

// All materializes the view.
func (r *Results) All() ([]schema.Record, error) {
	var out []schema.Record

	err := r.Each(func(rec schema.Record) error {
		out = append(out, rec)

		return nil
	})

	return out, err
}

// First returns the first record of the view, or nil when it is empty.
func (r *Results) First() (schema.Record, error) {
	var first schema.Record

	err := r.Limit(1).Each(func(rec schema.Record) error {
		first = rec

		return nil
	})

	return first, err
}

func (r *Results) Count() (int, error) {
	n := 0

	err := r.Each(func(schema.Record) error {
		n++

		return nil
	})

	return n, err
}

// Keys returns the primary keys of the records in the view.
func (r *Results) Keys() ([]schema.Key, error) {
	var keys []schema.Key

	err := r.Each(func(rec schema.Record) error {
		keys = append(keys, rec.PrimaryKey())

		return nil
	})

	return keys, err
}
