package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"acdmchain/native/governance"
)

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proposer    string   `json:"proposer"`
		Description string   `json:"description"`
		Target      string   `json:"target"`
		Method      string   `json:"method"`
		Args        []string `json:"args"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		writeError(w, err)
		return
	}
	action := governance.Action{Target: req.Target, Method: req.Method, Args: req.Args}
	if err := action.Validate(); err != nil {
		writeError(w, badRequestf("%v", err))
		return
	}
	id, err := s.dao.Propose(proposer, action, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"proposalId": id})
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	proposal, ok, err := s.dao.Proposal(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, governance.ErrProposalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newProposalResult(proposal))
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Voter   string `json:"voter"`
		Support bool   `json:"support"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	voter, err := parseAddress(req.Voter)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.dao.Vote(voter, id, req.Support); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "voted"})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := s.dao.Finalize(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.dao.Execute(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

func (s *Server) handleVoteLock(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	until, err := s.dao.CanClaimAt(account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"canClaimAt": until})
}
