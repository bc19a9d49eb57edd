// Package repository is the data-access facade over an embedded object store.
//
// A [Service] holds exactly one store handle. Each mutation it exposes runs in
// its own write scope, and [Service.Write] runs an arbitrary callback in one:
//
//	svc, err := repository.NewAt("notes.objrepo")
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	err = svc.Write(func(tx store.Tx) error {
//		if err := tx.AddOrReplace(&model.Note{ID: 1, Title: "a"}); err != nil {
//			return err
//		}
//
//		return tx.AddOrReplace(&model.Note{ID: 2, Title: "b"})
//	})
//
// Typed access resolves the schema name from the record type:
//
//	note, err := repository.Find[model.Note](svc, 1)
//
// Lookups report a missing record as a nil result and a nil error. Store
// errors are returned as the driver raised them.
package repository

import (
	// Backends available to every service.
	_ "github.com/inovacc/objrepo/internal/store/bolt"
	_ "github.com/inovacc/objrepo/internal/store/sqlite"
)
