package main

import (
	"fmt"
	"math/big"
	"strings"

	"acdmchain/config"
	"acdmchain/core/types"
	"acdmchain/crypto"
	"acdmchain/native/token"
	"acdmchain/state"
)

// applyGenesis writes the configured opening balances exactly once: native
// wei for the accounts that will buy into sale rounds, the initial STK
// distribution, and the RWD pool the vault pays claims from. A marker key in
// state keeps restarts from minting twice.
func applyGenesis(manager *state.Manager, ledger *token.Ledger, stakingAddr [20]byte, genesis config.Genesis) error {
	seeded, err := manager.GenesisSeeded()
	if err != nil {
		return err
	}
	if seeded {
		return nil
	}

	for raw, amount := range genesis.AccountsWei {
		addr, err := genesisAddress(raw)
		if err != nil {
			return err
		}
		wei, err := genesisAmount(amount)
		if err != nil {
			return fmt.Errorf("genesis account %s: %w", raw, err)
		}
		if err := manager.PutAccount(addr[:], &types.Account{BalanceWei: wei}); err != nil {
			return err
		}
	}

	for raw, amount := range genesis.StakeTokens {
		addr, err := genesisAddress(raw)
		if err != nil {
			return err
		}
		units, err := genesisAmount(amount)
		if err != nil {
			return fmt.Errorf("genesis stake %s: %w", raw, err)
		}
		if units.Sign() > 0 {
			if err := ledger.Mint(stakingAddr, token.SymbolSTK, addr, units); err != nil {
				return err
			}
		}
	}

	if strings.TrimSpace(genesis.RewardPoolTokens) != "" {
		pool, err := genesisAmount(genesis.RewardPoolTokens)
		if err != nil {
			return fmt.Errorf("genesis reward pool: %w", err)
		}
		if pool.Sign() > 0 {
			if err := ledger.Mint(stakingAddr, token.SymbolRWD, stakingAddr, pool); err != nil {
				return err
			}
		}
	}

	return manager.SetGenesisSeeded()
}

func genesisAddress(raw string) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return [20]byte{}, fmt.Errorf("genesis address %q: %w", raw, err)
	}
	var addr [20]byte
	copy(addr[:], decoded.Bytes())
	return addr, nil
}

func genesisAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is not a non-negative decimal", raw)
	}
	return amount, nil
}
