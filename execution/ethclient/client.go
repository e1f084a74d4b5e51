// Package ethclient is a thin JSON-RPC client for the
// subset of the Ethereum execution API this module
// needs: fetching a block's header and its receipts,
// so the receipts trie can be rebuilt and compared
// against the header's ReceiptsRoot.
package ethclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is a wrapper for the
// Ethereum RPC API.
type Client struct {
	c *rpc.Client
}

// NewClient connects to an Ethereum RPC
// provider at the specified URL.
func NewClient(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &Client{c: c}, nil
}

// Close shuts down the RPC client connection.
func (ec *Client) Close() error {
	ec.c.Close()
	return nil
}

// HeaderByHash fetches the block header identified
// by hash.
func (ec *Client) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	var header *types.Header
	err := ec.c.CallContext(ctx, &header, "eth_getBlockByHash", hash, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get block by hash: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("block %s not found", hash)
	}
	return header, nil
}

// HeaderByNumber fetches the block header at number.
// A nil number requests the latest block.
func (ec *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := ec.c.CallContext(ctx, &header, "eth_getBlockByNumber", blockTag(number), false)
	if err != nil {
		return nil, fmt.Errorf("failed to get block by number: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("block %v not found", number)
	}
	return header, nil
}

// ReceiptsByHash fetches every receipt belonging to
// the block identified by hash, in transaction order.
func (ec *Client) ReceiptsByHash(ctx context.Context, hash common.Hash) (types.Receipts, error) {
	var receipts types.Receipts
	err := ec.c.CallContext(ctx, &receipts, "eth_getBlockReceipts", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get block receipts: %w", err)
	}
	return receipts, nil
}
