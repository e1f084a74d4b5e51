package ethclient

import "math/big"

// blockTag renders number as the block identifier the
// execution JSON-RPC API expects: a quantity in hex,
// or "latest" when number is nil.
func blockTag(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return "0x" + number.Text(16)
}
