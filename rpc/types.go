package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"acdmchain/crypto"
	nativecommon "acdmchain/native/common"
	"acdmchain/native/governance"
	"acdmchain/native/platform"
	"acdmchain/native/staking"
	"acdmchain/native/token"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps engine errors onto HTTP status codes. Precondition
// violations are conflicts; unknown resources are 404; everything
// unrecognised is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, platform.ErrNotAuthority),
		errors.Is(err, staking.ErrNotAuthority):
		return http.StatusForbidden
	case errors.Is(err, governance.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.Is(err, platform.ErrSaleRoundActive),
		errors.Is(err, platform.ErrTradeRoundActive),
		errors.Is(err, platform.ErrSaleRoundNotActive),
		errors.Is(err, platform.ErrTradeRoundNotActive),
		errors.Is(err, platform.ErrSaleNeverStarted),
		errors.Is(err, platform.ErrPaymentTooSmall),
		errors.Is(err, platform.ErrSoldOut),
		errors.Is(err, platform.ErrOrderEmpty),
		errors.Is(err, platform.ErrNotOrderSeller),
		errors.Is(err, platform.ErrAlreadyRegistered),
		errors.Is(err, platform.ErrInsufficientFunds),
		errors.Is(err, staking.ErrNothingStaked),
		errors.Is(err, staking.ErrNothingToClaim),
		errors.Is(err, staking.ErrStakeFrozen),
		errors.Is(err, staking.ErrVoteLocked),
		errors.Is(err, governance.ErrVotingClosed),
		errors.Is(err, governance.ErrVotingOpen),
		errors.Is(err, governance.ErrAlreadyVoted),
		errors.Is(err, governance.ErrNoVotingPower),
		errors.Is(err, governance.ErrNotPassed),
		errors.Is(err, governance.ErrAlreadyExecuted),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrNotTokenOwner):
		return http.StatusConflict
	case errors.As(err, new(badRequestError)):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string { return e.msg }

func badRequestf(format string, args ...interface{}) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

func decodeBody(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return badRequestf("invalid request body: %v", err)
	}
	return nil
}

func parseAddress(raw string) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return [20]byte{}, badRequestf("invalid address %q", raw)
	}
	var addr [20]byte
	copy(addr[:], decoded.Bytes())
	return addr, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.ACDMPrefix, addr[:]).String()
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, badRequestf("amount missing")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, badRequestf("invalid amount %q", raw)
	}
	return amount, nil
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, badRequestf("invalid id %q", raw)
	}
	return id, nil
}

func formatBig(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type roundResult struct {
	SaleFinishAt    int64  `json:"saleFinishAt"`
	TradeFinishAt   int64  `json:"tradeFinishAt"`
	EthPerToken     string `json:"ethPerToken"`
	TotalTradingSum string `json:"totalTradingSum"`
	TokensForSale   string `json:"tokensForSale"`
	SaleActive      bool   `json:"saleActive"`
	TradeActive     bool   `json:"tradeActive"`
}

type purchaseResult struct {
	Units  string `json:"units"`
	Spent  string `json:"spentWei"`
	Refund string `json:"refundWei"`
}

type orderResult struct {
	ID     uint64 `json:"id"`
	Seller string `json:"seller"`
	Price  string `json:"priceWei"`
	Amount string `json:"amount"`
}

type redeemResult struct {
	Units        string `json:"units"`
	Cost         string `json:"costWei"`
	Refund       string `json:"refundWei"`
	SellerPayout string `json:"sellerPayoutWei"`
	FirstFee     string `json:"firstFeeWei"`
	SecondFee    string `json:"secondFeeWei"`
}

type positionResult struct {
	Amount       string `json:"amount"`
	StakedAt     int64  `json:"stakedAt"`
	CheckpointAt int64  `json:"checkpointAt"`
	Accumulated  string `json:"accumulated"`
}

type proposalResult struct {
	ID           uint64   `json:"id"`
	Proposer     string   `json:"proposer"`
	Description  string   `json:"description"`
	Target       string   `json:"target"`
	Method       string   `json:"method"`
	Args         []string `json:"args"`
	VotingStart  int64    `json:"votingStart"`
	VotingEnd    int64    `json:"votingEnd"`
	ForVotes     string   `json:"forVotes"`
	AgainstVotes string   `json:"againstVotes"`
	Status       string   `json:"status"`
}

func newProposalResult(p *governance.Proposal) proposalResult {
	return proposalResult{
		ID:           p.ID,
		Proposer:     formatAddress(p.Proposer),
		Description:  p.Description,
		Target:       p.Action.Target,
		Method:       p.Action.Method,
		Args:         p.Action.Args,
		VotingStart:  p.VotingStart,
		VotingEnd:    p.VotingEnd,
		ForVotes:     formatBig(p.ForVotes),
		AgainstVotes: formatBig(p.AgainstVotes),
		Status:       string(p.Status),
	}
}
