// Package store is the engineering core of the application: a state
// container over a single JSON snapshot file, best-effort-synchronized to a
// hosted document database, with a synchronous in-process notification bus
// and subscription-derived entitlements.
//
// Every mutation follows the same shape: transact against the local
// snapshot, notify the bus, enqueue the mirror write in the outbox. Local
// state is authoritative; a failed remote write never rolls anything back.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bryceheller922-ship-it/Archaleon/internal/entitlement"
	"github.com/bryceheller922-ship-it/Archaleon/internal/identity"
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/outbox"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
	"github.com/bryceheller922-ship-it/Archaleon/internal/utils"
)

var (
	ErrNotSignedIn        = errors.New("not signed in")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidParticipant = errors.New("conversation requires another participant")
)

// DeniedError is an entitlement denial with its user-facing reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// subscriptionPeriod is how long an applied subscription runs before renewal.
const subscriptionPeriod = 30 * 24 * time.Hour

// Store exposes every marketplace operation over the snapshot file. All
// collaborators except the file are optional: a nil remote client disables
// sync, a nil provider disables auth.
type Store struct {
	file     *File
	bus      *Bus
	remote   remote.Client
	out      outbox.Outbox
	provider identity.Provider
}

// New creates a Store. Collaborators are injected rather than reached
// through globals so tests can assemble a hermetic instance.
func New(file *File, bus *Bus, remoteClient remote.Client, out outbox.Outbox, provider identity.Provider) *Store {
	if out == nil {
		out = outbox.Discard{}
	}
	return &Store{
		file:     file,
		bus:      bus,
		remote:   remoteClient,
		out:      out,
		provider: provider,
	}
}

// Start attaches the session-change listener and kicks off the background
// listing refresh. It returns once the listener is registered; refreshes run
// until ctx is cancelled.
func (s *Store) Start(ctx context.Context) {
	if s.provider != nil {
		s.provider.OnSessionChange(func(subject *identity.Subject) {
			s.reconcileSession(ctx, subject)
		})
	}
	if s.remote != nil {
		go s.refreshLoop(ctx)
	}
}

// ---- Getters ----
//
// Reads load the snapshot fresh every time, mirroring the single-document
// persistence model. Returned slices are the caller's to keep.

// User returns the current session user, or nil.
func (s *Store) User() *models.UserProfile {
	return s.file.Load().User
}

// Tier returns the current user's subscription tier, free when signed out.
func (s *Store) Tier() models.SubscriptionTier {
	user := s.User()
	if user == nil {
		return models.TierFree
	}
	return user.Tier()
}

// Version returns the bus change counter.
func (s *Store) Version() uint64 {
	return s.bus.Version()
}

// Listings returns all listings in stored order.
func (s *Store) Listings() []models.Listing {
	return s.file.Load().Listings
}

// SortedListings returns all listings, featured first, then newest first.
func (s *Store) SortedListings() []models.Listing {
	listings := s.file.Load().Listings
	sortListings(listings)
	return listings
}

// MyListings returns the listings owned by the current user.
func (s *Store) MyListings() []models.Listing {
	snap := s.file.Load()
	if snap.User == nil {
		return nil
	}
	var mine []models.Listing
	for _, l := range snap.Listings {
		if l.CompanyID == snap.User.UID {
			mine = append(mine, l)
		}
	}
	return mine
}

// Listing returns one listing by id.
func (s *Store) Listing(id string) (*models.Listing, bool) {
	snap := s.file.Load()
	for i := range snap.Listings {
		if snap.Listings[i].ID == id {
			l := snap.Listings[i]
			return &l, true
		}
	}
	return nil, false
}

// Inquiries returns every inquiry.
func (s *Store) Inquiries() []models.Inquiry {
	return s.file.Load().Inquiries
}

// MyInquiries returns the inquiries the current user sent.
func (s *Store) MyInquiries() []models.Inquiry {
	snap := s.file.Load()
	if snap.User == nil {
		return nil
	}
	var mine []models.Inquiry
	for _, inq := range snap.Inquiries {
		if inq.FromUserID == snap.User.UID {
			mine = append(mine, inq)
		}
	}
	return mine
}

// InquiriesForMyListings returns the inquiries received on listings the
// current user owns.
func (s *Store) InquiriesForMyListings() []models.Inquiry {
	snap := s.file.Load()
	if snap.User == nil {
		return nil
	}
	owned := make(map[string]bool)
	for _, l := range snap.Listings {
		if l.CompanyID == snap.User.UID {
			owned[l.ID] = true
		}
	}
	var received []models.Inquiry
	for _, inq := range snap.Inquiries {
		if owned[inq.ListingID] {
			received = append(received, inq)
		}
	}
	return received
}

// Conversations returns the current user's conversations.
func (s *Store) Conversations() []models.ChatConversation {
	snap := s.file.Load()
	if snap.User == nil {
		return nil
	}
	var mine []models.ChatConversation
	for i := range snap.Conversations {
		if snap.Conversations[i].HasParticipant(snap.User.UID) {
			mine = append(mine, snap.Conversations[i])
		}
	}
	return mine
}

// Conversation returns one conversation by id, restricted to participants.
func (s *Store) Conversation(id string) (*models.ChatConversation, bool) {
	snap := s.file.Load()
	if snap.User == nil {
		return nil, false
	}
	for i := range snap.Conversations {
		c := snap.Conversations[i]
		if c.ID == id && c.HasParticipant(snap.User.UID) {
			return &c, true
		}
	}
	return nil, false
}

// ---- Listing mutations ----

// ListingInput is the caller-supplied portion of a new listing. Ownership,
// counters, status, and timestamps are stamped by the store.
type ListingInput struct {
	Industry    string   `json:"industry"`
	Description string   `json:"description"`
	AskingPrice float64  `json:"askingPrice"`
	Revenue     float64  `json:"revenue"`
	EBITDA      float64  `json:"ebitda"`
	Employees   int      `json:"employees"`
	Location    string   `json:"location"`
	Founded     int      `json:"founded"`
	Logo        string   `json:"logo,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	CoverPhoto  string   `json:"coverPhoto,omitempty"`
}

// AddListing creates a listing owned by the current user, gated by the
// tier's listing quota.
func (s *Store) AddListing(ctx context.Context, input ListingInput) (*models.Listing, error) {
	var created models.Listing
	err := s.file.Transact(func(snap *Snapshot) error {
		owned := 0
		for _, l := range snap.Listings {
			if snap.User != nil && l.CompanyID == snap.User.UID {
				owned++
			}
		}
		if d := entitlement.CanCreateListing(snap.User, owned); !d.Allowed {
			return &DeniedError{Reason: d.Reason}
		}

		created = models.Listing{
			ID:          utils.NewID(),
			CompanyID:   snap.User.UID,
			CompanyName: snap.User.Name,
			Industry:    input.Industry,
			Description: input.Description,
			AskingPrice: input.AskingPrice,
			Revenue:     input.Revenue,
			EBITDA:      input.EBITDA,
			Employees:   input.Employees,
			Location:    input.Location,
			Founded:     input.Founded,
			Status:      models.ListingActive,
			CreatedAt:   time.Now().UTC(),
			Logo:        input.Logo,
			Highlights:  input.Highlights,
			CoverPhoto:  input.CoverPhoto,
		}
		snap.Listings = append([]models.Listing{created}, snap.Listings...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionListings, created.ID, &created)
	return &created, nil
}

// ListingUpdate carries the fields an owner may change. Nil means unchanged.
type ListingUpdate struct {
	Industry    *string               `json:"industry,omitempty"`
	Description *string               `json:"description,omitempty"`
	AskingPrice *float64              `json:"askingPrice,omitempty"`
	Revenue     *float64              `json:"revenue,omitempty"`
	EBITDA      *float64              `json:"ebitda,omitempty"`
	Employees   *int                  `json:"employees,omitempty"`
	Location    *string               `json:"location,omitempty"`
	Founded     *int                  `json:"founded,omitempty"`
	Logo        *string               `json:"logo,omitempty"`
	Highlights  *[]string             `json:"highlights,omitempty"`
	CoverPhoto  *string               `json:"coverPhoto,omitempty"`
	Status      *models.ListingStatus `json:"status,omitempty"`
}

// UpdateListing applies an owner's edits to their listing. Ownership,
// counters, and view history are not editable.
func (s *Store) UpdateListing(ctx context.Context, id string, update ListingUpdate) (*models.Listing, error) {
	var updated models.Listing
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		i := findListing(snap.Listings, id)
		if i < 0 {
			return ErrNotFound
		}
		l := &snap.Listings[i]
		if l.CompanyID != snap.User.UID {
			return ErrForbidden
		}

		if update.Industry != nil {
			l.Industry = *update.Industry
		}
		if update.Description != nil {
			l.Description = *update.Description
		}
		if update.AskingPrice != nil {
			l.AskingPrice = *update.AskingPrice
		}
		if update.Revenue != nil {
			l.Revenue = *update.Revenue
		}
		if update.EBITDA != nil {
			l.EBITDA = *update.EBITDA
		}
		if update.Employees != nil {
			l.Employees = *update.Employees
		}
		if update.Location != nil {
			l.Location = *update.Location
		}
		if update.Founded != nil {
			l.Founded = *update.Founded
		}
		if update.Logo != nil {
			l.Logo = *update.Logo
		}
		if update.Highlights != nil {
			l.Highlights = *update.Highlights
		}
		if update.CoverPhoto != nil {
			l.CoverPhoto = *update.CoverPhoto
		}
		if update.Status != nil {
			l.Status = *update.Status
		}
		updated = *l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionListings, updated.ID, &updated)
	return &updated, nil
}

// ToggleListingFeatured flips the featured flag on an owned listing, gated
// by the tier's feature entitlement.
func (s *Store) ToggleListingFeatured(ctx context.Context, id string) (*models.Listing, error) {
	var updated models.Listing
	err := s.file.Transact(func(snap *Snapshot) error {
		if d := entitlement.CanFeatureListings(snap.User); !d.Allowed {
			return &DeniedError{Reason: d.Reason}
		}
		i := findListing(snap.Listings, id)
		if i < 0 {
			return ErrNotFound
		}
		l := &snap.Listings[i]
		if l.CompanyID != snap.User.UID {
			return ErrForbidden
		}

		if l.Featured {
			l.Featured = false
			l.FeaturedUntil = nil
		} else {
			l.Featured = true
			until := time.Now().UTC().Add(subscriptionPeriod)
			l.FeaturedUntil = &until
		}
		updated = *l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionListings, updated.ID, &updated)
	return &updated, nil
}

// DeleteListing removes an owned listing and every inquiry that references
// it, locally and remotely.
func (s *Store) DeleteListing(ctx context.Context, id string) error {
	var cascaded []string
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		i := findListing(snap.Listings, id)
		if i < 0 {
			return ErrNotFound
		}
		if snap.Listings[i].CompanyID != snap.User.UID {
			return ErrForbidden
		}

		snap.Listings = append(snap.Listings[:i], snap.Listings[i+1:]...)

		kept := snap.Inquiries[:0]
		for _, inq := range snap.Inquiries {
			if inq.ListingID == id {
				cascaded = append(cascaded, inq.ID)
				continue
			}
			kept = append(kept, inq)
		}
		snap.Inquiries = kept
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Notify()
	s.out.Enqueue(ctx, outbox.DeleteOp(remote.CollectionListings, id))
	for _, inquiryID := range cascaded {
		s.out.Enqueue(ctx, outbox.DeleteOp(remote.CollectionInquiries, inquiryID))
	}
	return nil
}

// TrackView records a view of a listing by the current user. The owner
// viewing their own listing is a no-op. Aggregate views count every
// non-owner call; per-viewer entries are deduplicated with a view count.
func (s *Store) TrackView(ctx context.Context, listingID string) error {
	var (
		updated models.Listing
		changed bool
	)
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		i := findListing(snap.Listings, listingID)
		if i < 0 {
			return ErrNotFound
		}
		l := &snap.Listings[i]
		if l.CompanyID == snap.User.UID {
			return nil
		}

		l.Views++
		now := time.Now().UTC()
		seen := false
		for j := range l.Viewers {
			if l.Viewers[j].UserID == snap.User.UID {
				l.Viewers[j].ViewCount++
				l.Viewers[j].ViewedAt = now
				seen = true
				break
			}
		}
		if !seen {
			l.Viewers = append(l.Viewers, models.ListingViewer{
				UserID:    snap.User.UID,
				UserName:  snap.User.Name,
				UserRole:  snap.User.Role,
				ViewedAt:  now,
				ViewCount: 1,
			})
		}
		updated = *l
		changed = true
		return nil
	})
	if err != nil || !changed {
		return err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionListings, updated.ID, &updated)
	return nil
}

// ---- Inquiry mutations ----

// AddInquiry records the current user's interest in a listing and bumps the
// listing's inquiry counter.
func (s *Store) AddInquiry(ctx context.Context, listingID, message string, offerPrice *float64) (*models.Inquiry, error) {
	var (
		created      models.Inquiry
		inquiryCount int
	)
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		i := findListing(snap.Listings, listingID)
		if i < 0 {
			return ErrNotFound
		}

		created = models.Inquiry{
			ID:           utils.NewID(),
			ListingID:    listingID,
			FromUserID:   snap.User.UID,
			FromUserName: snap.User.Name,
			OfferPrice:   offerPrice,
			Message:      message,
			Status:       models.InquiryPending,
			CreatedAt:    time.Now().UTC(),
		}
		snap.Inquiries = append([]models.Inquiry{created}, snap.Inquiries...)

		snap.Listings[i].Inquiries++
		inquiryCount = snap.Listings[i].Inquiries
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionInquiries, created.ID, &created)
	s.out.Enqueue(ctx, outbox.UpdateOp(remote.CollectionListings, listingID, map[string]any{
		"inquiries": inquiryCount,
	}))
	return &created, nil
}

// UpdateInquiryStatus lets the listing's owner accept or reject a pending
// inquiry. Accepted and rejected are terminal; the listing's inquiry counter
// is untouched.
func (s *Store) UpdateInquiryStatus(ctx context.Context, id string, status models.InquiryStatus) (*models.Inquiry, error) {
	var updated models.Inquiry
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		var inq *models.Inquiry
		for i := range snap.Inquiries {
			if snap.Inquiries[i].ID == id {
				inq = &snap.Inquiries[i]
				break
			}
		}
		if inq == nil {
			return ErrNotFound
		}

		j := findListing(snap.Listings, inq.ListingID)
		if j < 0 || snap.Listings[j].CompanyID != snap.User.UID {
			return ErrForbidden
		}
		if !models.ValidInquiryTransition(inq.Status, status) {
			return fmt.Errorf("cannot move inquiry from %s to %s: %w", inq.Status, status, ErrInvalidTransition)
		}

		inq.Status = status
		updated = *inq
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.out.Enqueue(ctx, outbox.UpdateOp(remote.CollectionInquiries, id, map[string]any{
		"status": string(updated.Status),
	}))
	return &updated, nil
}

// ---- Conversation mutations ----

// StartConversation opens a thread between the current user and another
// participant about a listing. At most one conversation exists per
// participant pair and listing; starting it again returns the existing one.
func (s *Store) StartConversation(ctx context.Context, other models.Participant, listingID, listingName string) (*models.ChatConversation, error) {
	var (
		conv    models.ChatConversation
		created bool
	)
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		if other.ID == "" || other.ID == snap.User.UID {
			return ErrInvalidParticipant
		}
		for i := range snap.Conversations {
			c := &snap.Conversations[i]
			// An empty listing id matches any existing thread with this
			// participant.
			if c.HasParticipant(snap.User.UID) && c.HasParticipant(other.ID) &&
				(listingID == "" || c.ListingID == listingID) {
				conv = *c
				return nil
			}
		}

		conv = models.ChatConversation{
			ID: utils.NewID(),
			Participants: []models.Participant{
				{ID: snap.User.UID, Name: snap.User.Name, Role: snap.User.Role},
				other,
			},
			ListingID:   listingID,
			ListingName: listingName,
			Messages:    []models.ChatMessage{},
		}
		snap.Conversations = append(snap.Conversations, conv)
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.bus.Notify()
		s.enqueueCreate(ctx, remote.CollectionConversations, conv.ID, &conv)
	}
	return &conv, nil
}

// SendMessage appends a message to a conversation the current user is part
// of, updates the last-message projection, and bumps the recipient's unread
// counter.
func (s *Store) SendMessage(ctx context.Context, conversationID, text string) (*models.ChatMessage, error) {
	var (
		msg  models.ChatMessage
		conv models.ChatConversation
	)
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		i := findConversation(snap.Conversations, conversationID)
		if i < 0 {
			return ErrNotFound
		}
		c := &snap.Conversations[i]
		if !c.HasParticipant(snap.User.UID) {
			return ErrForbidden
		}

		msg = models.ChatMessage{
			ID:         utils.NewID(),
			SenderID:   snap.User.UID,
			SenderName: snap.User.Name,
			Content:    text,
			Timestamp:  time.Now().UTC(),
		}
		c.Messages = append(c.Messages, msg)
		c.LastMessage = text
		c.LastMessageTime = msg.Timestamp
		c.Unread++
		conv = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionConversations, conv.ID, &conv)
	return &msg, nil
}

// MarkConversationRead clears the unread counter on a conversation the
// current user is part of.
func (s *Store) MarkConversationRead(ctx context.Context, conversationID string) error {
	err := s.file.Transact(func(snap *Snapshot) error {
		if snap.User == nil {
			return ErrNotSignedIn
		}
		i := findConversation(snap.Conversations, conversationID)
		if i < 0 {
			return ErrNotFound
		}
		c := &snap.Conversations[i]
		if !c.HasParticipant(snap.User.UID) {
			return ErrForbidden
		}
		c.Unread = 0
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Notify()
	s.out.Enqueue(ctx, outbox.UpdateOp(remote.CollectionConversations, conversationID, map[string]any{
		"unread": 0,
	}))
	return nil
}

// ---- Subscription mutations ----

// UpdateSubscription applies a tier change to the current user with a fresh
// 30-day period.
func (s *Store) UpdateSubscription(ctx context.Context, tier models.SubscriptionTier, planID string) (*models.UserProfile, error) {
	user := s.User()
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return s.ApplySubscription(ctx, user.UID, tier, planID)
}

// ApplySubscription applies a tier change to a user by id. Used by the
// billing return and webhook handlers, which identify the user from the
// checkout reference rather than the session.
func (s *Store) ApplySubscription(ctx context.Context, userID string, tier models.SubscriptionTier, planID string) (*models.UserProfile, error) {
	var updated models.UserProfile
	err := s.file.Transact(func(snap *Snapshot) error {
		sub := &models.Subscription{
			Tier:             tier,
			PlanID:           planID,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: time.Now().UTC().Add(subscriptionPeriod),
		}

		found := false
		for i := range snap.UsersDB {
			if snap.UsersDB[i].UID == userID {
				snap.UsersDB[i].Subscription = sub
				updated = snap.UsersDB[i]
				found = true
				break
			}
		}
		if snap.User != nil && snap.User.UID == userID {
			snap.User.Subscription = sub
			updated = *snap.User
			found = true
		}
		if !found {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionUsers, updated.UID, &updated)
	return &updated, nil
}

// ---- helpers ----

func (s *Store) enqueueCreate(ctx context.Context, collection, id string, doc any) {
	op, err := outbox.CreateOp(collection, id, doc)
	if err != nil {
		log.Printf("[Store] Failed to build outbox op for %s/%s: %v", collection, id, err)
		return
	}
	s.out.Enqueue(ctx, op)
}

func findListing(listings []models.Listing, id string) int {
	for i := range listings {
		if listings[i].ID == id {
			return i
		}
	}
	return -1
}

func findConversation(conversations []models.ChatConversation, id string) int {
	for i := range conversations {
		if conversations[i].ID == id {
			return i
		}
	}
	return -1
}
