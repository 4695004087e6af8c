package offer

import "time"

// Status is the negotiation state of an offer.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// predecessors lists the states each target may be reached from. Rejected
// and paid are terminal.
var predecessors = map[Status][]Status{
	StatusAccepted: {StatusPending},
	StatusRejected: {StatusPending},
	StatusPaid:     {StatusAccepted},
}

// CanTransition reports whether an offer may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, p := range predecessors[to] {
		if p == from {
			return true
		}
	}
	return false
}

// Offer is a buyer's purchase proposal on a listing. Amount never changes
// after creation.
type Offer struct {
	ID            string
	PropertyID    string
	PropertyTitle string
	BuyerEmail    string
	BuyerName     string
	AgentEmail    string
	Amount        float64
	Status        Status
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateOfferRequest is what a buyer submits. Agent and title are taken from
// the listing.
type CreateOfferRequest struct {
	PropertyID string  `json:"propertyId"`
	BuyerEmail string  `json:"buyerEmail"`
	BuyerName  string  `json:"buyerName"`
	Amount     float64 `json:"amount"`
}
