package store

import (
	"runtime"

	"github.com/2x3systems/gokn/gokn"
	"github.com/dgraph-io/badger/v3"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// famPrefix leads every family key: "fam" varint(g) varint(d)
var famPrefix = []byte("fam")

// BadgerStore keeps families in a badger db, one entry per family.
//
// Each value is a varint graph count followed by that many length-prefixed graph6 strings.
type BadgerStore struct {
	db       *badger.DB
	readOnly bool
}

// OpenBadgerStore opens (or creates) a badger db at opts.Root.  An empty Root opens an in-memory store.
func OpenBadgerStore(opts gokn.StoreOpts) (*BadgerStore, error) {
	dbOpts := badger.DefaultOptions(opts.Root)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.Root) == 0 {
		if opts.ReadOnly {
			return nil, errors.New("badger store root must be specified for read-only mode")
		}
		dbOpts.InMemory = true
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:       db,
		readOnly: opts.ReadOnly,
	}, nil
}

func famKey(key gokn.ParamKey) []byte {
	buf := proto.NewBuffer(append(make([]byte, 0, 16), famPrefix...))
	buf.EncodeVarint(uint64(key.G))
	buf.EncodeVarint(uint64(key.D))
	return buf.Bytes()
}

func parseFamKey(k []byte) (gokn.ParamKey, bool) {
	if len(k) <= len(famPrefix) {
		return gokn.ParamKey{}, false
	}
	buf := proto.NewBuffer(k[len(famPrefix):])
	g, err := buf.DecodeVarint()
	if err != nil {
		return gokn.ParamKey{}, false
	}
	d, err := buf.DecodeVarint()
	if err != nil {
		return gokn.ParamKey{}, false
	}
	return gokn.ParamKey{G: int(g), D: int(d)}, true
}

// MarshalFamily encodes fam as the value format of a BadgerStore entry.
func MarshalFamily(fam gokn.Family) []byte {
	sz := proto.SizeVarint(uint64(len(fam)))
	for _, g6 := range fam {
		sz += proto.SizeVarint(uint64(len(g6))) + len(g6)
	}
	buf := proto.NewBuffer(make([]byte, 0, sz))
	buf.EncodeVarint(uint64(len(fam)))
	for _, g6 := range fam {
		buf.EncodeStringBytes(g6)
	}
	return buf.Bytes()
}

// UnmarshalFamily decodes a value written by MarshalFamily.
func UnmarshalFamily(val []byte) (gokn.Family, error) {
	buf := proto.NewBuffer(val)
	count, err := buf.DecodeVarint()
	if err != nil {
		return nil, errors.Wrap(gokn.ErrBadFamily, "missing graph count")
	}
	if count > uint64(len(val)) {
		return nil, errors.Wrapf(gokn.ErrBadFamily, "graph count %d exceeds value size", count)
	}

	consumed := proto.SizeVarint(count)
	fam := make(gokn.Family, 0, count)
	for i := uint64(0); i < count; i++ {
		g6, err := buf.DecodeStringBytes()
		if err != nil {
			return nil, errors.Wrapf(gokn.ErrBadFamily, "graph %d of %d: %v", i, count, err)
		}
		consumed += proto.SizeVarint(uint64(len(g6))) + len(g6)
		fam = append(fam, g6)
	}
	if consumed != len(val) {
		return nil, errors.Wrapf(gokn.ErrBadFamily, "%d trailing bytes", len(val)-consumed)
	}
	return fam, nil
}

func (st *BadgerStore) Has(key gokn.ParamKey) (bool, error) {
	found := false
	err := st.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(famKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

func (st *BadgerStore) Load(key gokn.ParamKey) (gokn.Family, error) {
	var fam gokn.Family
	err := st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(famKey(key))
		if err == badger.ErrKeyNotFound {
			return errors.Wrapf(gokn.ErrFamilyNotFound, "%v", key)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			fam, err = UnmarshalFamily(val)
			return err
		})
	})
	return fam, err
}

func (st *BadgerStore) Save(key gokn.ParamKey, fam gokn.Family) error {
	if st.readOnly {
		return gokn.ErrStoreReadOnly
	}
	err := st.db.Update(func(txn *badger.Txn) error {
		return txn.Set(famKey(key), MarshalFamily(fam))
	})
	if err == nil {
		klog.V(1).Infof("saved %d graphs for %v", len(fam), key)
	}
	return err
}

func (st *BadgerStore) Keys() ([]gokn.ParamKey, error) {
	var keys []gokn.ParamKey
	err := st.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
			Prefix:         famPrefix,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if key, ok := parseFamKey(it.Item().Key()); ok {
				keys = append(keys, key)
			}
		}
		return nil
	})
	gokn.SortKeys(keys)
	return keys, err
}

func (st *BadgerStore) Close() error {
	if st.db == nil {
		return gokn.ErrClosed
	}
	err := st.db.Close()
	st.db = nil
	return err
}
