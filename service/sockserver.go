package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/mdlayher/vsock"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engine"
)

// SocketServer serves the one-request-per-connection JSON protocol over
// vsock or TCP. It exists for deployments where the engine runs isolated
// and the HTTP surface sits on the other side of the boundary.
type SocketServer struct {
	engine     *engine.Engine
	transport  string
	vsockPort  uint32
	tcpAddr    string
	maxWorkers int
}

func NewSocketServer(eng *engine.Engine, cfg ServerConfig) *SocketServer {
	return &SocketServer{
		engine:     eng,
		transport:  cfg.Transport,
		vsockPort:  cfg.VsockPort,
		tcpAddr:    cfg.TCPAddr,
		maxWorkers: cfg.MaxWorkers,
	}
}

func (s *SocketServer) listen() (net.Listener, error) {
	switch s.transport {
	case "vsock":
		listener, err := vsock.Listen(s.vsockPort, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vsock listener: %w", err)
		}
		log.Printf("INFO: Socket server listening on vsock port %d", s.vsockPort)
		return listener, nil
	case "tcp":
		listener, err := net.Listen("tcp", s.tcpAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to create tcp listener: %w", err)
		}
		log.Printf("INFO: Socket server listening on tcp %s", s.tcpAddr)
		return listener, nil
	default:
		return nil, fmt.Errorf("unknown socket transport: %q", s.transport)
	}
}

func (s *SocketServer) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	semaphore := make(chan struct{}, s.maxWorkers)
	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", s.maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *SocketServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	_, err := io.Copy(&buf, conn)
	if err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	var req auctionapi.SocketRequest
	if err := json.Unmarshal(buf.Bytes(), &req); err != nil {
		log.Printf("ERROR: Failed to decode request: %v", err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	log.Printf("INFO: Received request type: %s (request_id=%s)", req.Type, req.RequestID)

	response := s.dispatch(req)
	response.Type = req.Type + "_response"
	response.RequestID = req.RequestID

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	} else {
		log.Printf("INFO: Successfully sent response for %s (request_id=%s)", req.Type, req.RequestID)
	}
}

func (s *SocketServer) dispatch(req auctionapi.SocketRequest) auctionapi.SocketResponse {
	if req.Type == auctionapi.RequestPing {
		return auctionapi.SocketResponse{Success: true, Message: "auction server is healthy"}
	}

	principal := core.Principal(req.Principal)
	if principal == "" {
		return failure(fmt.Errorf("missing principal"))
	}

	switch req.Type {
	case auctionapi.RequestNewAuction:
		auctionID, err := s.engine.NewAuction(principal)
		if err != nil {
			return failure(err)
		}
		return auctionapi.SocketResponse{Success: true, AuctionID: auctionID}

	case auctionapi.RequestNextPhase:
		phase, err := s.engine.NextPhase(req.AuctionID, principal)
		if err != nil {
			return failure(err)
		}
		return auctionapi.SocketResponse{Success: true, AuctionID: req.AuctionID, NewPhase: phase.String()}

	case auctionapi.RequestPlaceBid:
		deposit, err := decimal.NewFromString(req.Deposit)
		if err != nil {
			return failure(fmt.Errorf("invalid deposit %q: %w", req.Deposit, err))
		}
		if err := s.engine.PlaceBid(req.AuctionID, principal, req.Commitment, deposit); err != nil {
			return failure(err)
		}
		return auctionapi.SocketResponse{Success: true, AuctionID: req.AuctionID}

	case auctionapi.RequestListAuctions:
		auctions := s.engine.GetAuctions(principal)
		records := make([]auctionapi.AuctionRecord, len(auctions))
		for i, a := range auctions {
			if a.ID == "" {
				continue
			}
			records[i] = auctionapi.AuctionRecord{
				ID:          a.ID,
				Beneficiary: string(a.Beneficiary),
				Phase:       a.Phase.String(),
				Settled:     a.Settled,
			}
		}
		return auctionapi.SocketResponse{Success: true, Auctions: records}

	case auctionapi.RequestReveal:
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return failure(fmt.Errorf("invalid amount %q: %w", req.Amount, err))
		}
		result, err := s.engine.Reveal(req.AuctionID, principal, amount, req.Secret)
		if err != nil {
			return failure(err)
		}
		return auctionapi.SocketResponse{
			Success:  true,
			Accepted: result.Accepted,
			Refund:   result.Refund.String(),
		}

	case auctionapi.RequestWithdraw:
		amount, err := s.engine.Withdraw(principal)
		if err != nil {
			return failure(err)
		}
		return auctionapi.SocketResponse{Success: true, Amount: amount.String()}

	case auctionapi.RequestSettle:
		settlement, err := s.engine.EndAuction(req.AuctionID, principal)
		if err != nil {
			return failure(err)
		}
		return auctionapi.SocketResponse{
			Success:   true,
			AuctionID: settlement.Receipt.AuctionID,
			Winner:    settlement.Receipt.Winner,
			Amount:    settlement.Receipt.Amount,
			Receipt:   settlement.COSE.EncodeBase64(),
		}

	default:
		return failure(fmt.Errorf("unknown request type: %s", req.Type))
	}
}

func failure(err error) auctionapi.SocketResponse {
	resp := auctionapi.SocketResponse{Success: false, Message: err.Error()}
	resp.Phase = currentPhase(err)
	return resp
}

// currentPhase extracts the current phase from phase-gate failures so
// clients can tell a too-early call from a too-late one.
func currentPhase(err error) string {
	var notStarted *core.PhaseNotStartedError
	if errors.As(err, &notStarted) {
		return notStarted.Current.String()
	}
	var ended *core.PhaseEndedError
	if errors.As(err, &ended) {
		return ended.Current.String()
	}
	return ""
}
