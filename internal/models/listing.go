package models

import (
	"time"
)

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingActive      ListingStatus = "active"
	ListingUnderReview ListingStatus = "under_review"
	ListingSold        ListingStatus = "sold"
)

// ListingViewer records one distinct user who viewed a listing. Repeat views
// by the same user bump ViewCount rather than adding another entry.
type ListingViewer struct {
	UserID    string    `bson:"user_id" json:"userId"`
	UserName  string    `bson:"user_name" json:"userName"`
	UserRole  UserRole  `bson:"user_role" json:"userRole"`
	ViewedAt  time.Time `bson:"viewed_at" json:"viewedAt"`
	ViewCount int       `bson:"view_count" json:"viewCount"`
}

// Listing represents a company for sale, owned by exactly one seller
// (CompanyID). Financial metrics are non-negative.
type Listing struct {
	ID            string          `bson:"_id" json:"id"`
	CompanyID     string          `bson:"company_id" json:"companyId"`
	CompanyName   string          `bson:"company_name" json:"companyName"`
	Industry      string          `bson:"industry" json:"industry"`
	Description   string          `bson:"description" json:"description"`
	AskingPrice   float64         `bson:"asking_price" json:"askingPrice"`
	Revenue       float64         `bson:"revenue" json:"revenue"`
	EBITDA        float64         `bson:"ebitda" json:"ebitda"`
	Employees     int             `bson:"employees" json:"employees"`
	Location      string          `bson:"location" json:"location"`
	Founded       int             `bson:"founded" json:"founded"`
	Views         int             `bson:"views" json:"views"`
	Inquiries     int             `bson:"inquiries" json:"inquiries"`
	Status        ListingStatus   `bson:"status" json:"status"`
	CreatedAt     time.Time       `bson:"created_at" json:"createdAt"`
	Logo          string          `bson:"logo,omitempty" json:"logo,omitempty"`
	Highlights    []string        `bson:"highlights,omitempty" json:"highlights,omitempty"`
	CoverPhoto    string          `bson:"cover_photo,omitempty" json:"coverPhoto,omitempty"`
	Viewers       []ListingViewer `bson:"viewers" json:"viewers"`
	Featured      bool            `bson:"featured,omitempty" json:"featured,omitempty"`
	FeaturedUntil *time.Time      `bson:"featured_until,omitempty" json:"featuredUntil,omitempty"`
}
