package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engine"
)

// principalHeader carries the authenticated caller identity. The HTTP
// layer trusts it: authentication happens upstream (gateway, mTLS), the
// engine only needs an opaque principal.
const principalHeader = "X-Auction-Principal"

// HTTPServer exposes the engine's operation set as a JSON HTTP API.
type HTTPServer struct {
	engine *engine.Engine
	signer *engine.ReceiptSigner
}

func NewHTTPServer(eng *engine.Engine, signer *engine.ReceiptSigner) *HTTPServer {
	return &HTTPServer{engine: eng, signer: signer}
}

func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auctions", s.newAuction)
	r.Get("/auctions", s.listAuctions)
	r.Post("/auctions/{id}/phase", s.nextPhase)
	r.Post("/auctions/{id}/bids", s.placeBid)
	r.Post("/auctions/{id}/reveals", s.reveal)
	r.Post("/auctions/{id}/settlement", s.settle)
	r.Post("/withdrawals", s.withdraw)
	r.Get("/receipts/key", s.receiptKey)

	return r
}

func (s *HTTPServer) newAuction(w http.ResponseWriter, r *http.Request) {
	caller, ok := caller(w, r)
	if !ok {
		return
	}

	auctionID, err := s.engine.NewAuction(caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, auctionapi.NewAuctionResponse{AuctionID: auctionID})
}

func (s *HTTPServer) listAuctions(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}

	auctions := s.engine.GetAuctions(principal)
	records := make([]auctionapi.AuctionRecord, len(auctions))
	for i, a := range auctions {
		if a.ID == "" {
			continue // placeholder slot stays zero-valued
		}
		records[i] = auctionapi.AuctionRecord{
			ID:          a.ID,
			Beneficiary: string(a.Beneficiary),
			Phase:       a.Phase.String(),
			Settled:     a.Settled,
		}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *HTTPServer) nextPhase(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	auctionID := chi.URLParam(r, "id")

	phase, err := s.engine.NextPhase(auctionID, principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, auctionapi.PhaseResponse{AuctionID: auctionID, Phase: phase.String()})
}

func (s *HTTPServer) placeBid(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	auctionID := chi.URLParam(r, "id")

	var req auctionapi.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, auctionapi.ErrorResponse{Error: "failed to decode bid request: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, auctionapi.ErrorResponse{Error: err.Error()})
		return
	}

	deposit, err := req.DepositAmount()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, auctionapi.ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.engine.PlaceBid(auctionID, principal, req.Commitment, deposit); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) reveal(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	auctionID := chi.URLParam(r, "id")

	var req auctionapi.RevealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, auctionapi.ErrorResponse{Error: "failed to decode reveal request: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, auctionapi.ErrorResponse{Error: err.Error()})
		return
	}

	amount, err := req.BidAmount()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, auctionapi.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := s.engine.Reveal(auctionID, principal, amount, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, auctionapi.RevealResponse{
		Accepted: result.Accepted,
		Refund:   result.Refund.String(),
	})
}

func (s *HTTPServer) withdraw(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}

	amount, err := s.engine.Withdraw(principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, auctionapi.WithdrawResponse{Amount: amount.String()})
}

func (s *HTTPServer) settle(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	auctionID := chi.URLParam(r, "id")

	settlement, err := s.engine.EndAuction(auctionID, principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, auctionapi.SettlementResponse{
		AuctionID: settlement.Receipt.AuctionID,
		Winner:    settlement.Receipt.Winner,
		Amount:    settlement.Receipt.Amount,
		Receipt:   settlement.COSE.EncodeBase64(),
	})
}

func (s *HTTPServer) receiptKey(w http.ResponseWriter, _ *http.Request) {
	if s.signer == nil {
		writeJSON(w, http.StatusNotFound, auctionapi.ErrorResponse{Error: "receipt signing is not enabled"})
		return
	}

	pemKey, err := s.signer.PublicKeyPEM()
	if err != nil {
		log.Printf("ERROR: Failed to export receipt key: %v", err)
		writeJSON(w, http.StatusInternalServerError, auctionapi.ErrorResponse{Error: "failed to export receipt key"})
		return
	}

	w.Header().Set("Content-Type", "application/x-pem-file")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(pemKey)); err != nil {
		log.Printf("ERROR: Failed to write receipt key response: %v", err)
	}
}

func caller(w http.ResponseWriter, r *http.Request) (core.Principal, bool) {
	principal := r.Header.Get(principalHeader)
	if principal == "" {
		writeJSON(w, http.StatusUnauthorized, auctionapi.ErrorResponse{Error: "missing " + principalHeader + " header"})
		return "", false
	}
	return core.Principal(principal), true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// writeError maps engine errors to HTTP statuses. Phase-gate violations
// carry the current phase in the response body.
func writeError(w http.ResponseWriter, err error) {
	resp := auctionapi.ErrorResponse{Error: err.Error()}

	var notStarted *core.PhaseNotStartedError
	var ended *core.PhaseEndedError
	var invalidDetails *core.InvalidBidDetailsError

	switch {
	case errors.Is(err, core.ErrAuctionNotFound):
		writeJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, core.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, resp)
	case errors.As(err, &notStarted):
		resp.Phase = notStarted.Current.String()
		writeJSON(w, http.StatusConflict, resp)
	case errors.As(err, &ended):
		resp.Phase = ended.Current.String()
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, core.ErrAuctionEnded),
		errors.Is(err, core.ErrAuctionSettled),
		errors.Is(err, core.ErrBidAlreadyRevealed),
		errors.Is(err, core.ErrNothingToRefund):
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, core.ErrNoBidFound):
		writeJSON(w, http.StatusNotFound, resp)
	case errors.As(err, &invalidDetails):
		writeJSON(w, http.StatusBadRequest, resp)
	default:
		log.Printf("ERROR: Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}
