package rpc

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"acdmchain/observability"
)

func weiValue(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.market.Round()
	if err != nil {
		writeError(w, err)
		return
	}
	now := s.market.Now()
	writeJSON(w, http.StatusOK, roundResult{
		SaleFinishAt:    round.SaleFinishAt,
		TradeFinishAt:   round.TradeFinishAt,
		EthPerToken:     formatBig(round.EthPerToken),
		TotalTradingSum: formatBig(round.TotalTradingSum),
		TokensForSale:   formatBig(round.TokensForSale),
		SaleActive:      round.SaleActive(now),
		TradeActive:     round.TradeActive(now),
	})
}

func (s *Server) handleStartSale(w http.ResponseWriter, r *http.Request) {
	round, err := s.market.StartSaleRound()
	if err != nil {
		writeError(w, err)
		return
	}
	observability.Platform().RecordRoundStart("sale")
	writeJSON(w, http.StatusOK, roundResult{
		SaleFinishAt:    round.SaleFinishAt,
		TradeFinishAt:   round.TradeFinishAt,
		EthPerToken:     formatBig(round.EthPerToken),
		TotalTradingSum: formatBig(round.TotalTradingSum),
		TokensForSale:   formatBig(round.TokensForSale),
		SaleActive:      true,
	})
}

func (s *Server) handleStartTrade(w http.ResponseWriter, r *http.Request) {
	round, err := s.market.StartTradeRound()
	if err != nil {
		writeError(w, err)
		return
	}
	observability.Platform().RecordRoundStart("trade")
	writeJSON(w, http.StatusOK, roundResult{
		SaleFinishAt:    round.SaleFinishAt,
		TradeFinishAt:   round.TradeFinishAt,
		EthPerToken:     formatBig(round.EthPerToken),
		TotalTradingSum: formatBig(round.TotalTradingSum),
		TokensForSale:   formatBig(round.TokensForSale),
		TradeActive:     true,
	})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Buyer      string `json:"buyer"`
		PaymentWei string `json:"paymentWei"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	buyer, err := parseAddress(req.Buyer)
	if err != nil {
		writeError(w, err)
		return
	}
	payment, err := parseAmount(req.PaymentWei)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := s.market.BuyACDM(buyer, payment)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.Platform().RecordPurchase(weiValue(receipt.Spent))
	writeJSON(w, http.StatusOK, purchaseResult{
		Units:  formatBig(receipt.Units),
		Spent:  formatBig(receipt.Spent),
		Refund: formatBig(receipt.Refund),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account  string `json:"account"`
		Referrer string `json:"referrer"`
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
	referrer, err := parseAddress(req.Referrer)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.market.Register(account, referrer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (s *Server) handleReferrerOf(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	referrer, ok, err := s.market.ReferrerOf(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"registered": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"registered": true,
		"referrer":   formatAddress(referrer),
	})
}

func (s *Server) handleAddOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seller   string `json:"seller"`
		Amount   string `json:"amount"`
		PriceWei string `json:"priceWei"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	seller, err := parseAddress(req.Seller)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	price, err := parseAmount(req.PriceWei)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.market.AddOrder(seller, amount, price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"orderId": id})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	order, ok, err := s.market.Order(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, orderResult{
		ID:     order.ID,
		Seller: formatAddress(order.Seller),
		Price:  formatBig(order.Price),
		Amount: formatBig(order.Amount),
	})
}

func (s *Server) handleRedeemOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Buyer      string `json:"buyer"`
		PaymentWei string `json:"paymentWei"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	buyer, err := parseAddress(req.Buyer)
	if err != nil {
		writeError(w, err)
		return
	}
	payment, err := parseAmount(req.PaymentWei)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := s.market.RedeemOrder(buyer, id, payment)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.Platform().RecordOrderFill(weiValue(receipt.Cost))
	writeJSON(w, http.StatusOK, redeemResult{
		Units:        formatBig(receipt.Units),
		Cost:         formatBig(receipt.Cost),
		Refund:       formatBig(receipt.Refund),
		SellerPayout: formatBig(receipt.SellerPayout),
		FirstFee:     formatBig(receipt.FirstFee),
		SecondFee:    formatBig(receipt.SecondFee),
	})
}

func (s *Server) handleRemoveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Seller string `json:"seller"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	seller, err := parseAddress(req.Seller)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.market.RemoveOrder(seller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
