package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
)

// tx runs record statements through q, which is the scope's *sql.Tx inside
// RunAtomic and the pool otherwise.
type tx struct {
	h        *Handle
	q        queryer
	writable bool
	done     bool
}

var _ store.Tx = (*tx)(nil)

func (t *tx) check() error {
	if t.done {
		return store.ErrTxDone
	}

	return nil
}

func (t *tx) checkWrite() error {
	if err := t.check(); err != nil {
		return err
	}

	if !t.writable {
		return store.ErrReadOnly
	}

	return nil
}

func (t *tx) Find(name string, key schema.Key) (schema.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}

	sch, err := t.h.codec.Resolve(name, key)
	if err != nil {
		return nil, err
	}

	var data []byte

	err = t.q.QueryRow(`SELECT data FROM records WHERE schema = ? AND key = ?`, name, key.Bytes()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, t.h.Notify(fmt.Errorf("reading %s/%s: %w", name, key, err))
	}

	rec, err := t.h.codec.Decode(sch, data)
	if err != nil {
		return nil, t.h.Notify(err)
	}

	return rec, nil
}

// Scan drains the cursor before calling fn, so fn may issue statements of
// its own.
func (t *tx) Scan(name string, fn func(rec schema.Record) error) error {
	if err := t.check(); err != nil {
		return err
	}

	sch, err := t.h.codec.Registry().Lookup(name)
	if err != nil {
		return err
	}

	rows, err := t.q.Query(`SELECT data FROM records WHERE schema = ? ORDER BY key`, name)
	if err != nil {
		return t.h.Notify(fmt.Errorf("scanning %s: %w", name, err))
	}

	var values [][]byte

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			_ = rows.Close()

			return t.h.Notify(fmt.Errorf("scanning %s: %w", name, err))
		}

		values = append(values, data)
	}

	if err := rows.Close(); err != nil {
		return t.h.Notify(err)
	}

	if err := rows.Err(); err != nil {
		return t.h.Notify(fmt.Errorf("scanning %s: %w", name, err))
	}

	for _, v := range values {
		rec, err := t.h.codec.Decode(sch, v)
		if err != nil {
			return t.h.Notify(err)
		}

		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

func (t *tx) AddOrReplace(rec schema.Record) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	sch, key, value, err := t.h.codec.Encode(rec)
	if err != nil {
		return err
	}

	if _, err := t.q.Exec(`
		INSERT INTO records (schema, key, data) VALUES (?, ?, ?)
		ON CONFLICT(schema, key) DO UPDATE SET data = excluded.data
	`, sch.Name, key, value); err != nil {
		return fmt.Errorf("writing %s/%s: %w", sch.Name, rec.PrimaryKey(), err)
	}

	return nil
}

func (t *tx) Remove(rec schema.Record) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	if _, err := t.h.codec.Resolve(rec.SchemaName(), rec.PrimaryKey()); err != nil {
		return err
	}

	if _, err := t.q.Exec(`DELETE FROM records WHERE schema = ? AND key = ?`,
		rec.SchemaName(), rec.PrimaryKey().Bytes()); err != nil {
		return fmt.Errorf("removing %s/%s: %w", rec.SchemaName(), rec.PrimaryKey(), err)
	}

	return nil
}

func (t *tx) RemoveAll() error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	if _, err := t.q.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	return nil
}

func (t *tx) RemoveAllOf(name string) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	if _, err := t.h.codec.Registry().Lookup(name); err != nil {
		return err
	}

	if _, err := t.q.Exec(`DELETE FROM records WHERE schema = ?`, name); err != nil {
		return fmt.Errorf("clearing %s: %w", name, err)
	}

	return nil
}

func (t *tx) RemoveRange(r *store.Results) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	keys, err := r.On(t).Keys()
	if err != nil {
		return err
	}

	for _, key := range keys {
		if _, err := t.q.Exec(`DELETE FROM records WHERE schema = ? AND key = ?`, r.Schema(), key.Bytes()); err != nil {
			return fmt.Errorf("removing %s/%s: %w", r.Schema(), key, err)
		}
	}

	return nil
}
