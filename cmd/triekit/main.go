package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	internalconfig "triekit/internal/config"
	"triekit/internal/log"
	"triekit/storage"
	"triekit/storage/badger"
	"triekit/storage/mem"
	"triekit/trie"

	"triekit/execution/ethclient"
)

func main() {
	rpcURL := flag.String("rpc", "", "Execution client RPC endpoint to connect to")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	networkFlag := flag.String("network", "", "Ethereum network to use (mainnet, sepolia, anvil)")
	blockFlag := flag.String("block", "", "Hash of the block to verify the receipts trie for")
	dbPath := flag.String("db-path", "", "Path to a persistent node store; in-memory if unset")

	if v := os.Getenv("ENDPOINT"); v != "" {
		flag.Set("rpc", v)
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		flag.Set("config", v)
	}
	if v := os.Getenv("ETHEREUM_NETWORK"); v != "" {
		flag.Set("network", v)
	}
	if v := os.Getenv("BLOCK_HASH"); v != "" {
		flag.Set("block", v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		flag.Set("db-path", v)
	}

	flag.Parse()

	logger := log.New(log.NewTerminalHandler()).With("component", "main")

	loader := internalconfig.NewLoader(logger)
	cfg, err := loader.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if *rpcURL != "" {
		cfg.Endpoint = *rpcURL
	}
	if *networkFlag != "" {
		cfg.Network = *networkFlag
	}
	if *dbPath != "" {
		cfg.DbPath = *dbPath
	}

	chainConfig := internalconfig.ChainConfigForNetwork(cfg.Network)

	if *blockFlag == "" {
		logger.Error("block hash is required")
		os.Exit(2)
	}
	blockHash := common.HexToHash(*blockFlag)

	logger.Info("using RPC provider", "url", cfg.Endpoint)
	logger.Info("using network", "name", cfg.Network, "chain-id", chainConfig.ChainID)
	logger.Info("verifying block", "hash", blockHash.Hex())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := ethclient.NewClient(ctx, cfg.Endpoint)
	if err != nil {
		logger.Error("failed to connect to RPC provider", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	kv, closeStore, err := openNodeStore(cfg.DbPath)
	if err != nil {
		logger.Error("failed to open node store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	store := trie.NewNodeStore(kv, logger)
	provider := ethclient.NewReceiptProvider(client, logger, store)

	root, err := provider.VerifiedRoot(ctx, blockHash)
	if err != nil {
		logger.Error("receipts trie verification failed", "err", err)
		os.Exit(1)
	}

	logger.Info("receipts trie verified", "root", root.Hex())
	fmt.Println(root.Hex())
}

// openNodeStore backs the receipts trie with a
// persistent badger store at path, or an in-memory
// store when path is empty (§5's "allowed
// substitution" of NodeStore backing).
func openNodeStore(path string) (storage.KeyValStore, func(), error) {
	if path == "" {
		db := mem.New()
		return db, func() { _ = db.Close() }, nil
	}

	db, err := badger.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}
	return db, func() { _ = db.Close() }, nil
}
