package main

import (
	"time"

	"github.com/srssieam/DreamDwell-server/auth"
	"github.com/srssieam/DreamDwell-server/fraud"
	"github.com/srssieam/DreamDwell-server/offer"
	"github.com/srssieam/DreamDwell-server/property"
	"github.com/srssieam/DreamDwell-server/review"
	"github.com/srssieam/DreamDwell-server/wishlist"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type identityResponse struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	PhotoURL  string `json:"photoURL,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toIdentityResponse(i auth.Identity) identityResponse {
	return identityResponse{
		ID:        i.ID,
		Email:     i.Email,
		Name:      i.Name,
		PhotoURL:  i.PhotoURL,
		Role:      string(i.Role),
		CreatedAt: formatTime(i.CreatedAt),
	}
}

type listingResponse struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Location           string  `json:"location"`
	ImageURL           string  `json:"imageURL"`
	Description        string  `json:"description,omitempty"`
	PriceMin           float64 `json:"priceMin"`
	PriceMax           float64 `json:"priceMax"`
	AgentEmail         string  `json:"agentEmail"`
	AgentName          string  `json:"agentName"`
	AgentImage         string  `json:"agentImage,omitempty"`
	VerificationStatus string  `json:"verificationStatus"`
	HasPhoto           bool    `json:"hasPhoto"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toListingResponse(l property.Listing) listingResponse {
	return listingResponse{
		ID:                 l.ID,
		Title:              l.Title,
		Location:           l.Location,
		ImageURL:           l.ImageURL,
		Description:        l.Description,
		PriceMin:           l.PriceMin,
		PriceMax:           l.PriceMax,
		AgentEmail:         l.AgentEmail,
		AgentName:          l.AgentName,
		AgentImage:         l.AgentImage,
		VerificationStatus: string(l.VerificationStatus),
		HasPhoto:           l.PhotoFileID != "",
		CreatedAt:          formatTime(l.CreatedAt),
		UpdatedAt:          formatTime(l.UpdatedAt),
	}
}

type advertisementResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"propertyId"`
	AgentEmail string `json:"agentEmail"`
	Title      string `json:"title"`
	ImageURL   string `json:"imageURL"`
	CreatedAt  string `json:"createdAt"`
}

func toAdvertisementResponse(a property.Advertisement) advertisementResponse {
	return advertisementResponse{
		ID:         a.ID,
		PropertyID: a.PropertyID,
		AgentEmail: a.AgentEmail,
		Title:      a.Title,
		ImageURL:   a.ImageURL,
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

type wishlistResponse struct {
	ID         string  `json:"id"`
	BuyerEmail string  `json:"buyerEmail"`
	PropertyID string  `json:"propertyId"`
	Title      string  `json:"title"`
	Location   string  `json:"location"`
	ImageURL   string  `json:"imageURL"`
	AgentName  string  `json:"agentName"`
	PriceMin   float64 `json:"priceMin"`
	PriceMax   float64 `json:"priceMax"`
	CreatedAt  string  `json:"createdAt"`
}

func toWishlistResponse(e wishlist.Entry) wishlistResponse {
	return wishlistResponse{
		ID:         e.ID,
		BuyerEmail: e.BuyerEmail,
		PropertyID: e.PropertyID,
		Title:      e.Title,
		Location:   e.Location,
		ImageURL:   e.ImageURL,
		AgentName:  e.AgentName,
		PriceMin:   e.PriceMin,
		PriceMax:   e.PriceMax,
		CreatedAt:  formatTime(e.CreatedAt),
	}
}

type offerResponse struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle"`
	BuyerEmail    string  `json:"buyerEmail"`
	BuyerName     string  `json:"buyerName"`
	AgentEmail    string  `json:"agentEmail"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toOfferResponse(o offer.Offer) offerResponse {
	return offerResponse{
		ID:            o.ID,
		PropertyID:    o.PropertyID,
		PropertyTitle: o.PropertyTitle,
		BuyerEmail:    o.BuyerEmail,
		BuyerName:     o.BuyerName,
		AgentEmail:    o.AgentEmail,
		Amount:        o.Amount,
		Status:        string(o.Status),
		TransactionID: o.TransactionID,
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
	}
}

type reviewResponse struct {
	ID            string `json:"id"`
	PropertyID    string `json:"propertyId"`
	PropertyTitle string `json:"propertyTitle"`
	AgentName     string `json:"agentName"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
	ReviewerImage string `json:"reviewerImage,omitempty"`
	Text          string `json:"text"`
	CreatedAt     string `json:"createdAt"`
}

func toReviewResponse(r review.Review) reviewResponse {
	return reviewResponse{
		ID:            r.ID,
		PropertyID:    r.PropertyID,
		PropertyTitle: r.PropertyTitle,
		AgentName:     r.AgentName,
		ReviewerName:  r.ReviewerName,
		ReviewerEmail: r.ReviewerEmail,
		ReviewerImage: r.ReviewerImage,
		Text:          r.Text,
		CreatedAt:     formatTime(r.CreatedAt),
	}
}

type stepResponse struct {
	Step     string `json:"step"`
	OK       bool   `json:"ok"`
	Affected int64  `json:"affected"`
	Error    string `json:"error,omitempty"`
}

type reportResponse struct {
	Target string         `json:"target"`
	OK     bool           `json:"ok"`
	Steps  []stepResponse `json:"steps"`
}

func toReportResponse(r fraud.Report) reportResponse {
	out := reportResponse{Target: r.Target, OK: r.OK(), Steps: make([]stepResponse, 0, len(r.Steps))}
	for _, step := range r.Steps {
		resp := stepResponse{Step: step.Step, OK: step.OK, Affected: step.Affected}
		if step.Err != nil {
			resp.Error = step.Err.Error()
		}
		out.Steps = append(out.Steps, resp)
	}
	return out
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
