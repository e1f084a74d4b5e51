package ethclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"triekit/internal/log"
	"triekit/receipts"
	"triekit/trie"
)

// ReceiptProvider fetches a block's receipts and
// verifies them against the block's own header by
// rebuilding the receipts trie, the way the source
// this module is based on verified transactions
// against a block's TxHash before trusting them.
type ReceiptProvider struct {
	c     *Client
	log   log.Logger
	store trie.NodeStore
}

// NewReceiptProvider creates a ReceiptProvider using
// the given client. store backs every receipts trie
// the provider rebuilds; callers pick in-memory or
// persistent backing (§5's "allowed substitution").
func NewReceiptProvider(client *Client, logger log.Logger, store trie.NodeStore) *ReceiptProvider {
	return &ReceiptProvider{c: client, log: logger.With("component", "receipt-provider"), store: store}
}

// VerifiedRoot fetches the header and receipts for
// the block identified by hash, rebuilds the receipts
// trie locally, and returns its root. An error is
// returned if the rebuilt root does not match the
// header's ReceiptsRoot: the provider never hands back
// a root it cannot vouch for.
func (p *ReceiptProvider) VerifiedRoot(ctx context.Context, hash common.Hash) (common.Hash, error) {
	header, err := p.c.HeaderByHash(ctx, hash)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch header: %w", err)
	}

	rs, err := p.c.ReceiptsByHash(ctx, hash)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch receipts: %w", err)
	}

	root, err := receipts.Root(rs, p.store)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to build receipts trie: %w", err)
	}

	if root != header.ReceiptsRoot {
		p.log.Warn("receipts root mismatch", "block", hash.Hex(), "got", root.Hex(), "want", header.ReceiptsRoot.Hex())
		return common.Hash{}, fmt.Errorf("receipts root mismatch: got %s, want %s", root.Hex(), header.ReceiptsRoot.Hex())
	}

	return root, nil
}
