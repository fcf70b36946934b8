package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

func TestRefreshListingsMergesRemoteWins(t *testing.T) {
	now := time.Now().UTC()
	rc := &fakeRemote{listings: []models.Listing{
		{ID: "SHARED0001", CompanyName: "Remote Name", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "REMOTE0001", CompanyName: "Remote Only", CreatedAt: now.Add(-1 * time.Hour)},
	}}
	s, _ := newSessionStore(t, nil, rc)
	require.NoError(t, s.file.Transact(func(snap *Snapshot) error {
		snap.Listings = []models.Listing{
			{ID: "SHARED0001", CompanyName: "Local Name", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "LOCAL00001", CompanyName: "Local Only", CreatedAt: now.Add(-3 * time.Hour)},
		}
		return nil
	}))

	before := s.Version()
	require.NoError(t, s.RefreshListings(bg()))
	assert.Greater(t, s.Version(), before)

	listings := s.Listings()
	require.Len(t, listings, 3)

	// Newest first.
	assert.Equal(t, "REMOTE0001", listings[0].ID)
	assert.Equal(t, "SHARED0001", listings[1].ID)
	assert.Equal(t, "LOCAL00001", listings[2].ID)

	// The shared id took the remote document.
	assert.Equal(t, "Remote Name", listings[1].CompanyName)
}

func TestRefreshListingsFailureLeavesLocalState(t *testing.T) {
	rc := &fakeRemote{listErr: errors.New("remote down")}
	s, _ := newSessionStore(t, nil, rc)
	require.NoError(t, s.file.Transact(func(snap *Snapshot) error {
		snap.Listings = []models.Listing{{ID: "LOCAL00001"}}
		return nil
	}))

	before := s.Version()
	assert.Error(t, s.RefreshListings(bg()))
	assert.Equal(t, before, s.Version())
	assert.Len(t, s.Listings(), 1)
}

func TestRefreshListingsWithoutRemote(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.RefreshListings(bg()))
}

func TestMergeListingsEmptySides(t *testing.T) {
	local := []models.Listing{{ID: "LOCAL00001"}}
	assert.Equal(t, local, mergeListings(local, nil))

	remoteDocs := []models.Listing{{ID: "REMOTE0001"}}
	assert.Equal(t, remoteDocs, mergeListings(nil, remoteDocs))
}
