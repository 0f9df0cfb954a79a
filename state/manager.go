package state

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"acdmchain/core/types"
	"acdmchain/native/governance"
	"acdmchain/native/platform"
	"acdmchain/native/staking"
	"acdmchain/storage"
)

// Key layout. Every record is a JSON document under a slash-separated
// prefix; addresses are lower-case hex, ids are decimal.
const (
	keyAccountPrefix = "accounts/"

	keyTokenBalancePrefix   = "token/bal/"
	keyTokenAllowancePrefix = "token/alw/"
	keyTokenSupplyPrefix    = "token/sup/"
	keyTokenOwnerPrefix     = "token/own/"

	keyPlatformRound       = "platform/round"
	keyPlatformParams      = "platform/params"
	keyPlatformOrderPrefix = "platform/order/"
	keyPlatformOrderSeq    = "platform/order-seq"
	keyPlatformRefPrefix   = "platform/ref/"

	keyStakingPosPrefix = "staking/pos/"
	keyStakingTotal     = "staking/total"
	keyStakingParams    = "staking/params"

	keyGovProposalPrefix = "gov/proposal/"
	keyGovProposalSeq    = "gov/seq"
	keyGovVotePrefix     = "gov/vote/"
	keyGovLockPrefix     = "gov/lock/"
	keyGovParams         = "gov/params"

	keyPausePrefix = "pause/"

	keyGenesisSeeded = "genesis/seeded"
)

// Manager persists module state in a key-value database. It backs every
// native engine's state interface. Individual accessors are safe to call
// concurrently (the mutex guards sequence allocation), but engine operations
// span multiple accessor calls: callers must run one engine operation at a
// time, which the RPC server enforces with its own serializing mutex.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func addrKey(prefix string, addr [20]byte) []byte {
	return []byte(prefix + hex.EncodeToString(addr[:]))
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, ok, err := m.db.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put(key, raw)
}

func (m *Manager) getBigInt(key []byte) (*big.Int, error) {
	raw, ok, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	value, good := new(big.Int).SetString(string(raw), 10)
	if !good {
		return nil, fmt.Errorf("state: corrupt integer at %s", key)
	}
	return value, nil
}

func (m *Manager) putBigInt(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	return m.db.Put(key, []byte(value.String()))
}

func (m *Manager) nextSequence(key []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok, err := m.db.Get(key)
	if err != nil {
		return 0, err
	}
	var current uint64
	if ok {
		current, err = strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("state: corrupt sequence at %s", key)
		}
	}
	current++
	if err := m.db.Put(key, []byte(strconv.FormatUint(current, 10))); err != nil {
		return 0, err
	}
	return current, nil
}

// --- accounts (native wei balances) ---

func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	key := []byte(keyAccountPrefix + hex.EncodeToString(addr))
	account := new(types.Account)
	ok, err := m.getJSON(key, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{BalanceWei: big.NewInt(0)}, nil
	}
	return types.EnsureAccount(account), nil
}

func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	key := []byte(keyAccountPrefix + hex.EncodeToString(addr))
	return m.putJSON(key, types.EnsureAccount(account))
}

// --- token ledger ---

func (m *Manager) TokenBalance(symbol string, addr [20]byte) (*big.Int, error) {
	return m.getBigInt(addrKey(keyTokenBalancePrefix+symbol+"/", addr))
}

func (m *Manager) SetTokenBalance(symbol string, addr [20]byte, amount *big.Int) error {
	return m.putBigInt(addrKey(keyTokenBalancePrefix+symbol+"/", addr), amount)
}

func (m *Manager) TokenAllowance(symbol string, owner, spender [20]byte) (*big.Int, error) {
	key := keyTokenAllowancePrefix + symbol + "/" + hex.EncodeToString(owner[:]) + "/" + hex.EncodeToString(spender[:])
	return m.getBigInt([]byte(key))
}

func (m *Manager) SetTokenAllowance(symbol string, owner, spender [20]byte, amount *big.Int) error {
	key := keyTokenAllowancePrefix + symbol + "/" + hex.EncodeToString(owner[:]) + "/" + hex.EncodeToString(spender[:])
	return m.putBigInt([]byte(key), amount)
}

func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	return m.getBigInt([]byte(keyTokenSupplyPrefix + symbol))
}

func (m *Manager) SetTokenSupply(symbol string, amount *big.Int) error {
	return m.putBigInt([]byte(keyTokenSupplyPrefix+symbol), amount)
}

func (m *Manager) TokenOwner(symbol string) ([20]byte, bool, error) {
	raw, ok, err := m.db.Get([]byte(keyTokenOwnerPrefix + symbol))
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	decoded, err := hex.DecodeString(string(raw))
	if err != nil || len(decoded) != 20 {
		return [20]byte{}, false, fmt.Errorf("state: corrupt token owner for %s", symbol)
	}
	var owner [20]byte
	copy(owner[:], decoded)
	return owner, true, nil
}

func (m *Manager) SetTokenOwner(symbol string, owner [20]byte) error {
	return m.db.Put([]byte(keyTokenOwnerPrefix+symbol), []byte(hex.EncodeToString(owner[:])))
}

// --- platform ---

func (m *Manager) PlatformRound() (*platform.RoundState, bool, error) {
	round := new(platform.RoundState)
	ok, err := m.getJSON([]byte(keyPlatformRound), round)
	if err != nil || !ok {
		return nil, false, err
	}
	return round, true, nil
}

func (m *Manager) SetPlatformRound(round *platform.RoundState) error {
	sanitized, err := platform.SanitizeRoundState(round)
	if err != nil {
		return err
	}
	return m.putJSON([]byte(keyPlatformRound), sanitized)
}

func (m *Manager) PlatformParams() (*platform.Params, bool, error) {
	params := new(platform.Params)
	ok, err := m.getJSON([]byte(keyPlatformParams), params)
	if err != nil || !ok {
		return nil, false, err
	}
	return params, true, nil
}

func (m *Manager) SetPlatformParams(params *platform.Params) error {
	if params == nil {
		return fmt.Errorf("state: nil platform params")
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return m.putJSON([]byte(keyPlatformParams), params)
}

func (m *Manager) PlatformNextOrderID() (uint64, error) {
	return m.nextSequence([]byte(keyPlatformOrderSeq))
}

func (m *Manager) PlatformOrderPut(order *platform.Order) error {
	sanitized, err := platform.SanitizeOrder(order)
	if err != nil {
		return err
	}
	key := keyPlatformOrderPrefix + strconv.FormatUint(sanitized.ID, 10)
	return m.putJSON([]byte(key), sanitized)
}

func (m *Manager) PlatformOrderGet(id uint64) (*platform.Order, bool, error) {
	order := new(platform.Order)
	key := keyPlatformOrderPrefix + strconv.FormatUint(id, 10)
	ok, err := m.getJSON([]byte(key), order)
	if err != nil || !ok {
		return nil, false, err
	}
	return order, true, nil
}

func (m *Manager) PlatformReferrerOf(addr [20]byte) ([20]byte, bool, error) {
	raw, ok, err := m.db.Get(addrKey(keyPlatformRefPrefix, addr))
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	decoded, err := hex.DecodeString(string(raw))
	if err != nil || len(decoded) != 20 {
		return [20]byte{}, false, fmt.Errorf("state: corrupt referrer record")
	}
	var referrer [20]byte
	copy(referrer[:], decoded)
	return referrer, true, nil
}

func (m *Manager) PlatformSetReferrer(addr, referrer [20]byte) error {
	return m.db.Put(addrKey(keyPlatformRefPrefix, addr), []byte(hex.EncodeToString(referrer[:])))
}

// --- staking ---

func (m *Manager) StakingPosition(addr [20]byte) (*staking.Position, bool, error) {
	position := new(staking.Position)
	ok, err := m.getJSON(addrKey(keyStakingPosPrefix, addr), position)
	if err != nil || !ok {
		return nil, false, err
	}
	return position, true, nil
}

func (m *Manager) SetStakingPosition(addr [20]byte, position *staking.Position) error {
	sanitized, err := staking.SanitizePosition(position)
	if err != nil {
		return err
	}
	return m.putJSON(addrKey(keyStakingPosPrefix, addr), sanitized)
}

func (m *Manager) StakingTotal() (*big.Int, error) {
	return m.getBigInt([]byte(keyStakingTotal))
}

func (m *Manager) SetStakingTotal(total *big.Int) error {
	if total != nil && total.Sign() < 0 {
		return fmt.Errorf("state: negative staking total")
	}
	return m.putBigInt([]byte(keyStakingTotal), total)
}

func (m *Manager) StakingParams() (*staking.Params, bool, error) {
	params := new(staking.Params)
	ok, err := m.getJSON([]byte(keyStakingParams), params)
	if err != nil || !ok {
		return nil, false, err
	}
	return params, true, nil
}

func (m *Manager) SetStakingParams(params *staking.Params) error {
	if params == nil {
		return fmt.Errorf("state: nil staking params")
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return m.putJSON([]byte(keyStakingParams), params)
}

// --- governance ---

func (m *Manager) GovProposal(id uint64) (*governance.Proposal, bool, error) {
	proposal := new(governance.Proposal)
	key := keyGovProposalPrefix + strconv.FormatUint(id, 10)
	ok, err := m.getJSON([]byte(key), proposal)
	if err != nil || !ok {
		return nil, false, err
	}
	return proposal, true, nil
}

func (m *Manager) SetGovProposal(proposal *governance.Proposal) error {
	sanitized, err := governance.SanitizeProposal(proposal)
	if err != nil {
		return err
	}
	key := keyGovProposalPrefix + strconv.FormatUint(sanitized.ID, 10)
	return m.putJSON([]byte(key), sanitized)
}

func (m *Manager) GovNextProposalID() (uint64, error) {
	return m.nextSequence([]byte(keyGovProposalSeq))
}

func (m *Manager) GovVote(id uint64, voter [20]byte) (*governance.Vote, bool, error) {
	vote := new(governance.Vote)
	key := keyGovVotePrefix + strconv.FormatUint(id, 10) + "/" + hex.EncodeToString(voter[:])
	ok, err := m.getJSON([]byte(key), vote)
	if err != nil || !ok {
		return nil, false, err
	}
	return vote, true, nil
}

func (m *Manager) SetGovVote(vote *governance.Vote) error {
	if vote == nil {
		return fmt.Errorf("state: nil vote")
	}
	key := keyGovVotePrefix + strconv.FormatUint(vote.ProposalID, 10) + "/" + hex.EncodeToString(vote.Voter[:])
	return m.putJSON([]byte(key), vote)
}

func (m *Manager) GovVoteLock(addr [20]byte) (int64, error) {
	raw, ok, err := m.db.Get(addrKey(keyGovLockPrefix, addr))
	if err != nil || !ok {
		return 0, err
	}
	until, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("state: corrupt vote lock")
	}
	return until, nil
}

func (m *Manager) SetGovVoteLock(addr [20]byte, until int64) error {
	return m.db.Put(addrKey(keyGovLockPrefix, addr), []byte(strconv.FormatInt(until, 10)))
}

func (m *Manager) GovParams() (*governance.Params, bool, error) {
	params := new(governance.Params)
	ok, err := m.getJSON([]byte(keyGovParams), params)
	if err != nil || !ok {
		return nil, false, err
	}
	return params, true, nil
}

func (m *Manager) SetGovParams(params *governance.Params) error {
	if params == nil {
		return fmt.Errorf("state: nil governance params")
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return m.putJSON([]byte(keyGovParams), params)
}

// --- module pauses ---

func (m *Manager) IsPaused(module string) bool {
	raw, ok, err := m.db.Get([]byte(keyPausePrefix + module))
	if err != nil || !ok {
		return false
	}
	return string(raw) == "1"
}

func (m *Manager) SetPaused(module string, paused bool) error {
	value := "0"
	if paused {
		value = "1"
	}
	return m.db.Put([]byte(keyPausePrefix+module), []byte(value))
}

// --- genesis ---

// GenesisSeeded reports whether the opening balances have been written.
func (m *Manager) GenesisSeeded() (bool, error) {
	raw, ok, err := m.db.Get([]byte(keyGenesisSeeded))
	if err != nil {
		return false, err
	}
	return ok && string(raw) == "1", nil
}

// SetGenesisSeeded marks the opening balances as written so a restart does
// not mint them twice.
func (m *Manager) SetGenesisSeeded() error {
	return m.db.Put([]byte(keyGenesisSeeded), []byte("1"))
}
