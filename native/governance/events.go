package governance

import (
	"encoding/hex"
	"strconv"
	"strings"

	"acdmchain/core/types"
)

const (
	EventTypeProposed  = "governance.proposal.created"
	EventTypeVoted     = "governance.proposal.voted"
	EventTypeFinalized = "governance.proposal.finalized"
	EventTypeExecuted  = "governance.proposal.executed"
)

type governanceEvent struct {
	evt *types.Event
}

func (g governanceEvent) EventType() string {
	if g.evt == nil {
		return ""
	}
	return g.evt.Type
}

func (g governanceEvent) Event() *types.Event { return g.evt }

func proposalAttributes(p *Proposal) map[string]string {
	attrs := make(map[string]string)
	if p == nil {
		return attrs
	}
	attrs["proposalId"] = strconv.FormatUint(p.ID, 10)
	attrs["proposer"] = hex.EncodeToString(p.Proposer[:])
	attrs["target"] = p.Action.Target
	attrs["method"] = p.Action.Method
	attrs["args"] = strings.Join(p.Action.Args, ",")
	attrs["votingEnd"] = strconv.FormatInt(p.VotingEnd, 10)
	attrs["forVotes"] = cloneBigInt(p.ForVotes).String()
	attrs["againstVotes"] = cloneBigInt(p.AgainstVotes).String()
	attrs["status"] = string(p.Status)
	return attrs
}

func NewProposedEvent(p *Proposal) *types.Event {
	return &types.Event{Type: EventTypeProposed, Attributes: proposalAttributes(p)}
}

func NewVotedEvent(v *Vote) *types.Event {
	return &types.Event{Type: EventTypeVoted, Attributes: map[string]string{
		"proposalId": strconv.FormatUint(v.ProposalID, 10),
		"voter":      hex.EncodeToString(v.Voter[:]),
		"support":    strconv.FormatBool(v.Support),
		"weight":     cloneBigInt(v.Weight).String(),
	}}
}

func NewFinalizedEvent(p *Proposal) *types.Event {
	return &types.Event{Type: EventTypeFinalized, Attributes: proposalAttributes(p)}
}

func NewExecutedEvent(p *Proposal) *types.Event {
	return &types.Event{Type: EventTypeExecuted, Attributes: proposalAttributes(p)}
}
