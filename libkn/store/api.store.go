// Package store persists graph families keyed by (g,d).
//
// Two FamilyStore implementations are offered: a directory of graph6 text files, interchangeable with
// nauty tooling, and a badger key-value database.
package store

import (
	"github.com/2x3systems/gokn/gokn"
	"github.com/pkg/errors"
)

const (
	TextKind   = "text"
	BadgerKind = "badger"
)

// Open opens the FamilyStore kind named by opts.Kind.
func Open(opts gokn.StoreOpts) (gokn.FamilyStore, error) {
	switch opts.Kind {
	case TextKind, "":
		return OpenTextStore(opts)
	case BadgerKind:
		return OpenBadgerStore(opts)
	}
	return nil, errors.Errorf("unknown store kind %q", opts.Kind)
}

// CopyAll saves every family of src into dst, returning the keys copied.
func CopyAll(dst, src gokn.FamilyStore) ([]gokn.ParamKey, error) {
	keys, err := src.Keys()
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		fam, err := src.Load(key)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %v", key)
		}
		if err = dst.Save(key, fam); err != nil {
			return nil, errors.Wrapf(err, "saving %v", key)
		}
	}
	return keys, nil
}
