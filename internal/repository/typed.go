package repository

import (
	"fmt"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
)

// Ptr constrains P to a pointer to T that is a record, so the schema name can
// be read from a zero value.
type Ptr[T any] interface {
	*T
	schema.Record
}

func nameOf[T any, P Ptr[T]]() string {
	var zero T

	return P(&zero).SchemaName()
}

func as[T any, P Ptr[T]](rec schema.Record, err error) (P, error) {
	if err != nil || rec == nil {
		return nil, err
	}

	p, ok := rec.(P)
	if !ok {
		return nil, fmt.Errorf("%w: want %T, got %T", schema.ErrRecordType, P(nil), rec)
	}

	return p, nil
}

// Find returns the T stored under id, or nil.
func Find[T any, P Ptr[T]](s *Service, id int64) (P, error) {
	return as[T, P](s.Query(nameOf[T, P](), id))
}

// FindByString returns the T stored under id, or nil. An empty id is not
// found without reaching the store.
func FindByString[T any, P Ptr[T]](s *Service, id string) (P, error) {
	return as[T, P](s.QueryString(nameOf[T, P](), id))
}

// All returns a lazy view of every T.
func All[T any, P Ptr[T]](s *Service) *TypedResults[T, P] {
	return &TypedResults[T, P]{r: s.QueryAll(nameOf[T, P]())}
}

// UpsertAll is the typed form of AddOrUpdateAll.
func UpsertAll[T any, P Ptr[T]](s *Service, items ...P) error {
	recs := make([]schema.Record, len(items))
	for i, item := range items {
		recs[i] = item
	}

	return s.AddOrUpdateAll(recs...)
}

// RemoveAllOf deletes every T.
func RemoveAllOf[T any, P Ptr[T]](s *Service) error {
	return s.RemoveAllOf(nameOf[T, P]())
}

// RemoveRange deletes every T the view yields.
func RemoveRange[T any, P Ptr[T]](s *Service, r *TypedResults[T, P]) error {
	return s.RemoveRange(r.r)
}

// TypedResults wraps store.Results for one record type.
type TypedResults[T any, P Ptr[T]] struct {
	r *store.Results
}

// Untyped returns the underlying view.
func (t *TypedResults[T, P]) Untyped() *store.Results { return t.r }

// Where keeps the records pred accepts.
func (t *TypedResults[T, P]) Where(pred func(P) bool) *TypedResults[T, P] {
	return &TypedResults[T, P]{r: t.r.Where(func(rec schema.Record) bool {
		p, ok := rec.(P)

		return ok && pred(p)
	})}
}

// OrderBy sorts the records by less.
func (t *TypedResults[T, P]) OrderBy(less func(a, b P) bool) *TypedResults[T, P] {
	return &TypedResults[T, P]{r: t.r.OrderBy(func(a, b schema.Record) bool {
		pa, _ := a.(P)
		pb, _ := b.(P)

		return less(pa, pb)
	})}
}

// Limit caps the view at n records.
func (t *TypedResults[T, P]) Limit(n int) *TypedResults[T, P] {
	return &TypedResults[T, P]{r: t.r.Limit(n)}
}

// Each calls fn for every record in order, stopping at the first error.
func (t *TypedResults[T, P]) Each(fn func(P) error) error {
	return t.r.Each(func(rec schema.Record) error {
		p, err := as[T, P](rec, nil)
		if err != nil {
			return err
		}

		return fn(p)
	})
}

// All materializes the view.
func (t *TypedResults[T, P]) All() ([]P, error) {
	var out []P

	err := t.Each(func(p P) error {
		out = append(out, p)

		return nil
	})

	return out, err
}

// First returns the first T of the view, or nil.
func (t *TypedResults[T, P]) First() (P, error) {
	return as[T, P](t.r.First())
}

// Count returns the number of records in the view.
func (t *TypedResults[T, P]) Count() (int, error) {
	return t.r.Count()
}
