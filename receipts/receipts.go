// Package receipts builds the receipts trie for a
// block and reports its root digest, so it can be
// checked against the block header's ReceiptsRoot.
//
// Grounded on original_source/trie.rs's
// "should_put_receipts_in_trie_correctly" test, which
// drives the engine exactly this way: insert one leaf
// per receipt, keyed by its index, then compare the
// resulting root against a known value.
package receipts

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"triekit/trie"
)

// Root builds a trie containing one entry per
// receipt, keyed the way go-ethereum keys the
// canonical receipts trie (the RLP encoding of the
// receipt's index within the block), and returns the
// resulting root digest.
//
// store backs the trie built for this one computation;
// callers choose whatever NodeStore fits (in-memory
// scratch space for a one-shot verification, or a
// persistent store to keep the trie around), since
// nothing about the result depends on the choice (§5).
func Root(rs types.Receipts, store trie.NodeStore) (common.Hash, error) {
	t := trie.New(store)

	for i, r := range rs {
		key, err := indexKey(i)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to encode receipt index %d: %w", i, err)
		}

		value, err := r.MarshalBinary()
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to encode receipt %d: %w", i, err)
		}

		t, err = t.Put(key, value)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to insert receipt %d: %w", i, err)
		}
	}

	return t.Root(), nil
}

// Verify builds the receipts trie for rs and reports
// whether its root matches want, the ReceiptsRoot
// carried by the corresponding block header.
func Verify(rs types.Receipts, want common.Hash, store trie.NodeStore) (bool, error) {
	got, err := Root(rs, store)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// indexKey returns the nibble-encoded trie key for
// the receipt at position i: the RLP encoding of i as
// an unsigned integer, same as the rest of the
// consensus suite keys its ordered tries.
func indexKey(i int) (trie.Nibbles, error) {
	var buf bytes.Buffer
	if err := rlp.Encode(&buf, uint(i)); err != nil {
		return trie.Nibbles{}, err
	}
	return trie.FromBytes(buf.Bytes()), nil
}
