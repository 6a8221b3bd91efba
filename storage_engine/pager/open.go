package pager

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Pager backends accepted by Open.
const (
	KindMemory  = "memory"
	KindDisk    = "disk"
	KindLevelDB = "leveldb"
)

var ErrUnknownKind = errors.New("unknown pager kind")

// Open builds a pager by name. path is ignored for the memory backend.
func Open(kind, path string, pageSize int) (Pager, error) {
	switch strings.ToLower(kind) {
	case KindMemory, "":
		return NewInMemoryPager(pageSize), nil
	case KindDisk:
		if path == "" {
			return nil, errors.New("disk pager needs a path")
		}
		return NewOnDiskPager(path, pageSize)
	case KindLevelDB:
		return NewLevelDBPager(path, pageSize)
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
}
