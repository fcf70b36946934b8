// Package remote defines the contract to the hosted document database the
// local snapshot synchronizes against. The application tolerates this
// collaborator being fully unavailable: every caller treats errors from it as
// non-fatal.
package remote

import (
	"context"
	"errors"
)

// Collection names mirrored between the local snapshot and the remote store.
const (
	CollectionUsers         = "users"
	CollectionListings      = "listings"
	CollectionInquiries     = "inquiries"
	CollectionConversations = "conversations"
)

// ErrNotFound is returned by Read when no document matches the id.
var ErrNotFound = errors.New("remote: document not found")

// Client is per-collection CRUD over the remote document database.
type Client interface {
	// Create inserts a document under the given id.
	Create(ctx context.Context, collection, id string, doc any) error
	// Read decodes the document with the given id into out.
	Read(ctx context.Context, collection, id string, out any) error
	// List decodes every document in the collection into out (a pointer to a
	// slice), ordered by the given field, descending.
	List(ctx context.Context, collection, orderBy string, out any) error
	// Update applies a partial document to the document with the given id.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document with the given id.
	Delete(ctx context.Context, collection, id string) error
}
