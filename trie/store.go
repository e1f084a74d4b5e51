package trie

import (
	"errors"
	"triekit/internal/log"
	"triekit/storage"
)

// NodeStore is a content-addressed mapping from
// 32-byte digest to RLP-encoded node bytes (§4.3).
// Any storage.KeyValStore can back it; the core
// makes no assumption about whether the store is
// in-memory or persistent, only that it is
// synchronous and linearizable with respect to the
// calling goroutine (§5).
type NodeStore interface {
	// Put inserts the encoded node bytes under
	// digest. Idempotent: digests are content
	// addresses, so a second Put under the same
	// digest always carries the same bytes.
	Put(digest Digest, encoded []byte) error

	// Get retrieves the encoded node bytes for
	// digest, if present. Absence is reported via
	// the boolean, never as an error.
	Get(digest Digest) ([]byte, bool, error)

	// Remove deletes digest from the store. Fails
	// with MissingNode if digest is not present:
	// the engine only ever removes digests it
	// wrote on a prior commit.
	Remove(digest Digest) error
}

// kvNodeStore adapts a storage.KeyValStore into a
// NodeStore.
type kvNodeStore struct {
	kv  storage.KeyValStore
	log log.Logger
}

// NewNodeStore wraps a storage.KeyValStore (mem.Database
// or badger.Database) as a NodeStore.
func NewNodeStore(kv storage.KeyValStore, logger log.Logger) NodeStore {
	return &kvNodeStore{kv: kv, log: logger.With("component", "node-store")}
}

func (s *kvNodeStore) Put(digest Digest, encoded []byte) error {
	if err := s.kv.Put(digest.Bytes(), encoded); err != nil {
		return wrapErr(MissingNode, "failed to write node", err)
	}
	return nil
}

func (s *kvNodeStore) Get(digest Digest) ([]byte, bool, error) {
	encoded, err := s.kv.Get(digest.Bytes())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr(DanglingChild, "failed to read node", err)
	}
	return encoded, true, nil
}

func (s *kvNodeStore) Remove(digest Digest) error {
	if _, err := s.kv.Get(digest.Bytes()); errors.Is(err, storage.ErrKeyNotFound) {
		return newErr(MissingNode, "node %s not present in store", digest.Hex())
	} else if err != nil {
		return wrapErr(MissingNode, "failed to check node presence", err)
	}

	if err := s.kv.Delete(digest.Bytes()); err != nil {
		s.log.Warn("failed to delete node", "digest", digest.Hex(), "err", err)
		return wrapErr(MissingNode, "failed to delete node", err)
	}
	return nil
}
