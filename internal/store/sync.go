package store

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

const refreshInterval = 5 * time.Minute

// RefreshListings pulls every listing from the remote database and merges
// them into the local snapshot. For ids present on both sides the remote
// document wins; listings that only exist locally are kept. Failures leave
// local state untouched.
func (s *Store) RefreshListings(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}

	var remoteListings []models.Listing
	if err := s.remote.List(ctx, remote.CollectionListings, "created_at", &remoteListings); err != nil {
		log.Printf("[Sync] Failed to fetch remote listings: %v", err)
		return err
	}

	err := s.file.Transact(func(snap *Snapshot) error {
		snap.Listings = mergeListings(snap.Listings, remoteListings)
		return nil
	})
	if err != nil {
		log.Printf("[Sync] Failed to persist merged listings: %v", err)
		return err
	}

	s.bus.Notify()
	return nil
}

// mergeListings merges by primary key with remote documents replacing local
// ones, then re-sorts newest first.
func mergeListings(local, remoteDocs []models.Listing) []models.Listing {
	remoteByID := make(map[string]models.Listing, len(remoteDocs))
	for _, l := range remoteDocs {
		remoteByID[l.ID] = l
	}

	merged := make([]models.Listing, 0, len(local)+len(remoteDocs))
	seen := make(map[string]bool, len(local))
	for _, l := range local {
		if r, ok := remoteByID[l.ID]; ok {
			merged = append(merged, r)
		} else {
			merged = append(merged, l)
		}
		seen[l.ID] = true
	}
	for _, l := range remoteDocs {
		if !seen[l.ID] {
			merged = append(merged, l)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}

// sortListings orders listings featured first, then newest first.
func sortListings(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].Featured != listings[j].Featured {
			return listings[i].Featured
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
}

func (s *Store) refreshLoop(ctx context.Context) {
	if err := s.RefreshListings(ctx); err != nil {
		log.Printf("[Sync] Initial listing refresh failed, continuing with local data: %v", err)
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshListings(ctx); err != nil {
				log.Printf("[Sync] Periodic listing refresh failed: %v", err)
			}
		}
	}
}
