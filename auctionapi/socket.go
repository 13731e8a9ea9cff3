package auctionapi

// Request types understood by the socket server. The socket protocol is a
// single JSON envelope per connection, dispatched on the type field.
const (
	RequestPing         = "ping"
	RequestNewAuction   = "new_auction"
	RequestNextPhase    = "next_phase"
	RequestPlaceBid     = "place_bid"
	RequestListAuctions = "list_auctions"
	RequestReveal       = "reveal"
	RequestWithdraw     = "withdraw"
	RequestSettle       = "settle"
)

// SocketRequest is the request envelope of the socket protocol. Fields
// beyond Type and Principal are populated per request type.
type SocketRequest struct {
	Type       string `json:"type"`
	RequestID  string `json:"request_id,omitempty"`
	Principal  string `json:"principal"`
	AuctionID  string `json:"auction_id,omitempty"`
	Commitment string `json:"commitment,omitempty"`
	Deposit    string `json:"deposit,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Secret     string `json:"secret,omitempty"`
}

// SocketResponse is the response envelope of the socket protocol. Success
// and Message are always set; the remaining fields are populated per
// request type.
type SocketResponse struct {
	Type      string            `json:"type"`
	RequestID string            `json:"request_id,omitempty"`
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Phase     string            `json:"phase,omitempty"` // current phase on phase-gate failures
	AuctionID string            `json:"auction_id,omitempty"`
	NewPhase  string            `json:"new_phase,omitempty"`
	Accepted  bool              `json:"accepted,omitempty"`
	Refund    string            `json:"refund,omitempty"`
	Amount    string            `json:"amount,omitempty"`
	Winner    string            `json:"winner,omitempty"`
	Receipt   ReceiptCOSEBase64 `json:"receipt_cose_base64,omitempty"`
	Auctions  []AuctionRecord   `json:"auctions,omitempty"`
}
