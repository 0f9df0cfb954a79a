// Package token implements the fungible ledger used by the platform and the
// staking vault. Balances and allowances are kept per token symbol; minting
// and burning are gated on the per-token owner address.
package token

import (
	"fmt"
	"strings"
)

// Supported token symbols. ACDM is the sale token minted by the platform, STK
// is the staking deposit token, RWD is the staking reward token.
const (
	SymbolACDM = "ACDM"
	SymbolSTK  = "STK"
	SymbolRWD  = "RWD"
)

// NormalizeSymbol validates the token symbol and returns its canonical
// uppercase form.
func NormalizeSymbol(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	switch trimmed {
	case SymbolACDM, SymbolSTK, SymbolRWD:
		return trimmed, nil
	default:
		return "", fmt.Errorf("unsupported token symbol: %s", symbol)
	}
}
