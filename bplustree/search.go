package bplus

import "github.com/cockroachdb/errors"

// Search returns the value of the first entry stored under key.
func (t *BPlusTree) Search(key []byte) ([]byte, error) {
	if len(key) != t.cfg.KeySize {
		return nil, errors.Wrapf(ErrSizeMismatch, "Search: key %d/%d", len(key), t.cfg.KeySize)
	}
	it := t.SeekGE(key)
	defer it.Close()

	if err := it.Err(); err != nil {
		return nil, errors.Wrap(err, "Search")
	}
	if !it.Valid() || t.cmp(it.Key(), key) != 0 {
		return nil, errors.Wrapf(ErrKeyNotFound, "Search: %x", key)
	}
	return it.Value(), nil
}

// SearchAll returns the values of every entry stored under key, in
// insertion order.
func (t *BPlusTree) SearchAll(key []byte) ([][]byte, error) {
	if len(key) != t.cfg.KeySize {
		return nil, errors.Wrapf(ErrSizeMismatch, "SearchAll: key %d/%d", len(key), t.cfg.KeySize)
	}
	it := t.SeekGE(key)
	defer it.Close()

	var vals [][]byte
	for ; it.Valid() && t.cmp(it.Key(), key) == 0; it.Next() {
		vals = append(vals, it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrap(err, "SearchAll")
	}
	if len(vals) == 0 {
		return nil, errors.Wrapf(ErrKeyNotFound, "SearchAll: %x", key)
	}
	return vals, nil
}
