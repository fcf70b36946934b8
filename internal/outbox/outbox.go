// Package outbox records the remote writes that mirror local mutations.
// Every mutating store operation persists locally first and then enqueues an
// Op here; delivery to the remote database is asynchronous and best-effort,
// so a failed or slow remote never rolls back or blocks local state.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

// Kind is the type of remote write an Op represents.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Op is one pending remote write. It is JSON-serializable so it can travel
// through a task queue. Doc holds the full document for creates; Fields holds
// the partial document for updates, keyed by remote field names.
type Op struct {
	Collection string          `json:"collection"`
	Kind       Kind            `json:"kind"`
	ID         string          `json:"id"`
	Doc        json.RawMessage `json:"doc,omitempty"`
	Fields     map[string]any  `json:"fields,omitempty"`
}

// Outbox accepts ops for asynchronous delivery. Enqueue never surfaces
// delivery failures to the caller; implementations log them.
type Outbox interface {
	Enqueue(ctx context.Context, op Op)
}

// CreateOp builds a create op. Marshaling doc here pins the document state at
// mutation time, so later local edits do not leak into an undelivered op.
func CreateOp(collection, id string, doc any) (Op, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Op{}, fmt.Errorf("failed to marshal %s/%s document: %w", collection, id, err)
	}
	return Op{Collection: collection, Kind: KindCreate, ID: id, Doc: raw}, nil
}

// UpdateOp builds a partial-update op.
func UpdateOp(collection, id string, fields map[string]any) Op {
	return Op{Collection: collection, Kind: KindUpdate, ID: id, Fields: fields}
}

// DeleteOp builds a delete op.
func DeleteOp(collection, id string) Op {
	return Op{Collection: collection, Kind: KindDelete, ID: id}
}

// Apply executes a single op against the remote client.
func Apply(ctx context.Context, client remote.Client, op Op) error {
	switch op.Kind {
	case KindCreate:
		doc, err := decodeDoc(op.Collection, op.Doc)
		if err != nil {
			return err
		}
		return client.Create(ctx, op.Collection, op.ID, doc)
	case KindUpdate:
		return client.Update(ctx, op.Collection, op.ID, op.Fields)
	case KindDelete:
		return client.Delete(ctx, op.Collection, op.ID)
	default:
		return fmt.Errorf("unknown outbox op kind %q", op.Kind)
	}
}

// decodeDoc revives the serialized document as its model type so the remote
// client stores it under the model's field names rather than the JSON ones.
func decodeDoc(collection string, raw json.RawMessage) (any, error) {
	var doc any
	switch collection {
	case remote.CollectionUsers:
		doc = &models.UserProfile{}
	case remote.CollectionListings:
		doc = &models.Listing{}
	case remote.CollectionInquiries:
		doc = &models.Inquiry{}
	case remote.CollectionConversations:
		doc = &models.ChatConversation{}
	default:
		return nil, fmt.Errorf("unknown outbox collection %q", collection)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
	}
	return doc, nil
}
