package remote_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryceheller922-ship-it/Archaleon/internal/db"
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

// Integration test against a real MongoDB instance. Skipped unless
// MONGO_URI_TEST is set.
func TestMongoClientRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_URI_TEST")
	if uri == "" {
		t.Skip("MONGO_URI_TEST not set; skipping MongoDB integration test")
	}

	client, database, err := db.ConnectDB(uri, "archaleon_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DisconnectDB(client) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rc := remote.NewMongoClient(database)
	t.Cleanup(func() { _ = database.Collection(remote.CollectionListings).Drop(context.Background()) })

	listing := models.Listing{
		ID:          "T35T000001",
		CompanyName: "Roundtrip Manufacturing",
		Industry:    "Manufacturing",
		Status:      models.ListingActive,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, rc.Create(ctx, remote.CollectionListings, listing.ID, listing))

	// Create with the same id replaces rather than failing.
	listing.CompanyName = "Roundtrip Manufacturing Ltd"
	require.NoError(t, rc.Create(ctx, remote.CollectionListings, listing.ID, listing))

	var got models.Listing
	require.NoError(t, rc.Read(ctx, remote.CollectionListings, listing.ID, &got))
	assert.Equal(t, "Roundtrip Manufacturing Ltd", got.CompanyName)

	require.NoError(t, rc.Update(ctx, remote.CollectionListings, listing.ID, map[string]any{"inquiries": 3}))
	require.NoError(t, rc.Read(ctx, remote.CollectionListings, listing.ID, &got))
	assert.Equal(t, 3, got.Inquiries)

	var all []models.Listing
	require.NoError(t, rc.List(ctx, remote.CollectionListings, "created_at", &all))
	assert.NotEmpty(t, all)

	require.NoError(t, rc.Delete(ctx, remote.CollectionListings, listing.ID))
	err = rc.Read(ctx, remote.CollectionListings, listing.ID, &got)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	err = rc.Update(ctx, remote.CollectionListings, "M1SS1NG001", map[string]any{"inquiries": 1})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}
