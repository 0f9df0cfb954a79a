package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Amount  string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.vault.Stake(account, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "staked"})
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := s.vault.Unstake(account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount": formatBig(amount)})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	reward, err := s.vault.Claim(account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reward": formatBig(reward)})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	position, err := s.vault.Position(account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResult{
		Amount:       formatBig(position.Amount),
		StakedAt:     position.StakedAt,
		CheckpointAt: position.CheckpointAt,
		Accumulated:  formatBig(position.Accumulated),
	})
}

func (s *Server) handleTotalStaked(w http.ResponseWriter, r *http.Request) {
	total, err := s.vault.TotalStaked()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"total": formatBig(total)})
}
