package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"acdmchain/native/token"
)

func parseSymbol(raw string) (string, error) {
	symbol, err := token.NormalizeSymbol(raw)
	if err != nil {
		return "", badRequestf("unknown token %q", raw)
	}
	return symbol, nil
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	symbol, err := parseSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := s.ledger.BalanceOf(symbol, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": formatBig(balance)})
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	symbol, err := parseSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	supply, err := s.ledger.Supply(symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"supply": formatBig(supply)})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	symbol, err := parseSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		writeError(w, err)
		return
	}
	spender, err := parseAddress(req.Spender)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Approve(owner, symbol, spender, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	symbol, err := parseSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Transfer(from, symbol, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}
