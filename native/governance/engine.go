package governance

import (
	"math/big"
	"time"

	"acdmchain/core/events"
	"acdmchain/core/types"
	nativecommon "acdmchain/native/common"
)

const moduleName = "governance"

type engineState interface {
	GovProposal(id uint64) (*Proposal, bool, error)
	SetGovProposal(proposal *Proposal) error
	GovNextProposalID() (uint64, error)
	GovVote(id uint64, voter [20]byte) (*Vote, bool, error)
	SetGovVote(vote *Vote) error
	GovVoteLock(addr [20]byte) (int64, error)
	SetGovVoteLock(addr [20]byte, until int64) error
	GovParams() (*Params, bool, error)
	SetGovParams(params *Params) error
}

// PowerView supplies vote weights and the quorum denominator, backed by the
// staking vault.
type PowerView interface {
	VotingPower(addr [20]byte) (*big.Int, error)
	TotalStaked() (*big.Int, error)
}

// Executor applies a passed proposal's action to its target module.
type Executor interface {
	Execute(action Action) error
}

// Engine runs the token-weighted proposal pipeline: propose, vote during the
// debate period, finalize against quorum and majority, execute.
type Engine struct {
	state    engineState
	powers   PowerView
	executor Executor
	emitter  events.Emitter
	nowFn    func() int64
	pauses   nativecommon.PauseView
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetPowers(view PowerView) { e.powers = view }

func (e *Engine) SetExecutor(executor Executor) { e.executor = executor }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	e.nowFn = now
}

func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

func (e *Engine) now() int64 { return e.nowFn() }

func (e *Engine) emit(evt *types.Event) {
	if evt == nil {
		return
	}
	e.emitter.Emit(governanceEvent{evt: evt})
}

func (e *Engine) loadParams() (Params, error) {
	stored, ok, err := e.state.GovParams()
	if err != nil {
		return Params{}, err
	}
	if !ok || stored == nil {
		return DefaultParams(), nil
	}
	return *stored, nil
}

// Propose opens a new proposal. The proposer must hold voting power; the
// action must be on the configuration allow-list.
func (e *Engine) Propose(proposer [20]byte, action Action, description string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.powers == nil {
		return 0, errNilPowers
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if err := action.Validate(); err != nil {
		return 0, err
	}
	power, err := e.powers.VotingPower(proposer)
	if err != nil {
		return 0, err
	}
	if power == nil || power.Sign() == 0 {
		return 0, ErrNoVotingPower
	}
	params, err := e.loadParams()
	if err != nil {
		return 0, err
	}
	id, err := e.state.GovNextProposalID()
	if err != nil {
		return 0, err
	}
	now := e.now()
	proposal := &Proposal{
		ID:           id,
		Proposer:     proposer,
		Description:  description,
		Action:       action,
		VotingStart:  now,
		VotingEnd:    now + params.DebateSeconds,
		ForVotes:     big.NewInt(0),
		AgainstVotes: big.NewInt(0),
		Status:       StatusVoting,
	}
	if err := e.state.SetGovProposal(proposal); err != nil {
		return 0, err
	}
	e.emit(NewProposedEvent(proposal))
	return id, nil
}

// Vote records one ballot, weighted by the voter's current staked amount,
// and extends the voter's withdrawal lock to the proposal's voting end.
func (e *Engine) Vote(voter [20]byte, proposalID uint64, support bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.powers == nil {
		return errNilPowers
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	proposal, ok, err := e.state.GovProposal(proposalID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProposalNotFound
	}
	now := e.now()
	if proposal.Status != StatusVoting || now >= proposal.VotingEnd {
		return ErrVotingClosed
	}
	if _, voted, err := e.state.GovVote(proposalID, voter); err != nil {
		return err
	} else if voted {
		return ErrAlreadyVoted
	}
	weight, err := e.powers.VotingPower(voter)
	if err != nil {
		return err
	}
	if weight == nil || weight.Sign() == 0 {
		return ErrNoVotingPower
	}
	if support {
		proposal.ForVotes = new(big.Int).Add(proposal.ForVotes, weight)
	} else {
		proposal.AgainstVotes = new(big.Int).Add(proposal.AgainstVotes, weight)
	}
	if err := e.state.SetGovProposal(proposal); err != nil {
		return err
	}
	vote := &Vote{ProposalID: proposalID, Voter: voter, Support: support, Weight: new(big.Int).Set(weight)}
	if err := e.state.SetGovVote(vote); err != nil {
		return err
	}
	lock, err := e.state.GovVoteLock(voter)
	if err != nil {
		return err
	}
	if proposal.VotingEnd > lock {
		if err := e.state.SetGovVoteLock(voter, proposal.VotingEnd); err != nil {
			return err
		}
	}
	e.emit(NewVotedEvent(vote))
	return nil
}

// Finalize settles a proposal after the debate period. It passes when the
// participating weight meets the quorum share of the total staked amount and
// the for-votes strictly exceed the against-votes.
func (e *Engine) Finalize(proposalID uint64) (ProposalStatus, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	if e.powers == nil {
		return "", errNilPowers
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return "", err
	}
	proposal, ok, err := e.state.GovProposal(proposalID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrProposalNotFound
	}
	if proposal.Status != StatusVoting {
		return "", ErrVotingClosed
	}
	if e.now() < proposal.VotingEnd {
		return "", ErrVotingOpen
	}
	total, err := e.powers.TotalStaked()
	if err != nil {
		return "", err
	}
	params, err := e.loadParams()
	if err != nil {
		return "", err
	}
	participation := new(big.Int).Add(proposal.ForVotes, proposal.AgainstVotes)
	// participation / total >= quorumBps / 10000, in integer cross-products.
	lhs := new(big.Int).Mul(participation, big.NewInt(10_000))
	rhs := new(big.Int).Mul(cloneBigInt(total), big.NewInt(int64(params.QuorumBps)))
	quorumMet := total != nil && total.Sign() > 0 && lhs.Cmp(rhs) >= 0
	if quorumMet && proposal.ForVotes.Cmp(proposal.AgainstVotes) > 0 {
		proposal.Status = StatusPassed
	} else {
		proposal.Status = StatusRejected
	}
	if err := e.state.SetGovProposal(proposal); err != nil {
		return "", err
	}
	e.emit(NewFinalizedEvent(proposal))
	return proposal.Status, nil
}

// Execute applies a passed proposal's action through the configured executor
// and marks the proposal executed.
func (e *Engine) Execute(proposalID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.executor == nil {
		return errNilExecutor
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	proposal, ok, err := e.state.GovProposal(proposalID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProposalNotFound
	}
	switch proposal.Status {
	case StatusPassed:
	case StatusExecuted:
		return ErrAlreadyExecuted
	default:
		return ErrNotPassed
	}
	if err := e.executor.Execute(proposal.Action); err != nil {
		return err
	}
	proposal.Status = StatusExecuted
	if err := e.state.SetGovProposal(proposal); err != nil {
		return err
	}
	e.emit(NewExecutedEvent(proposal))
	return nil
}

// CanClaimAt reports the voter's withdrawal lock: the latest voting end of
// any proposal the address has voted on. Zero means never locked.
func (e *Engine) CanClaimAt(addr [20]byte) (int64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.GovVoteLock(addr)
}

// Proposal returns a copy of the stored proposal, if any.
func (e *Engine) Proposal(proposalID uint64) (*Proposal, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	proposal, ok, err := e.state.GovProposal(proposalID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return proposal.Clone(), true, nil
}

// Params returns the effective voting thresholds.
func (e *Engine) Params() (Params, error) {
	if e == nil || e.state == nil {
		return Params{}, errNilState
	}
	return e.loadParams()
}
