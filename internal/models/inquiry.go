package models

import (
	"time"
)

// InquiryStatus is the state of an inquiry. The only legal transitions are
// pending -> accepted and pending -> rejected; both are terminal.
type InquiryStatus string

const (
	InquiryPending  InquiryStatus = "pending"
	InquiryAccepted InquiryStatus = "accepted"
	InquiryRejected InquiryStatus = "rejected"
)

// ValidInquiryTransition reports whether a status change is allowed.
func ValidInquiryTransition(from, to InquiryStatus) bool {
	return from == InquiryPending && (to == InquiryAccepted || to == InquiryRejected)
}

// Inquiry is a buyer's expression of interest in one listing, optionally
// carrying an offer price.
type Inquiry struct {
	ID           string        `bson:"_id" json:"id"`
	ListingID    string        `bson:"listing_id" json:"listingId"`
	FromUserID   string        `bson:"from_user_id" json:"fromUserId"`
	FromUserName string        `bson:"from_user_name" json:"fromUserName"`
	OfferPrice   *float64      `bson:"offer_price,omitempty" json:"offerPrice,omitempty"`
	Message      string        `bson:"message" json:"message"`
	Status       InquiryStatus `bson:"status" json:"status"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`
}
