package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

// Snapshot is the whole application state as one JSON document: the current
// session user plus every collection.
type Snapshot struct {
	User          *models.UserProfile       `json:"user"`
	UsersDB       []models.UserProfile      `json:"usersDb"`
	Listings      []models.Listing          `json:"listings"`
	Inquiries     []models.Inquiry          `json:"inquiries"`
	Conversations []models.ChatConversation `json:"conversations"`
}

// Patch is a partial snapshot for File.Save. A nil field leaves the
// corresponding collection untouched; User is doubly indirect so the session
// user can be patched to nil (signed out).
type Patch struct {
	User          **models.UserProfile
	UsersDB       *[]models.UserProfile
	Listings      *[]models.Listing
	Inquiries     *[]models.Inquiry
	Conversations *[]models.ChatConversation
}

// File stores the snapshot as a single JSON file on disk. A mutex serializes
// transactions in-process; concurrent processes writing the same path are
// last-write-wins.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a snapshot file handle for the given path. The file itself
// is created lazily on the first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the current snapshot. It never fails the caller: a missing or
// corrupt file yields a zero snapshot.
func (f *File) Load() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *File) loadLocked() Snapshot {
	var snap Snapshot
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Storage] Failed to read snapshot %s: %v", f.path, err)
		}
		return Snapshot{}
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Printf("[Storage] Snapshot %s is corrupt, starting empty: %v", f.path, err)
		return Snapshot{}
	}
	return snap
}

// Transact is the single mutation primitive: it loads the snapshot, applies
// the mutator, and writes the whole document back atomically (temp file plus
// rename). If the mutator returns an error nothing is written.
func (f *File) Transact(fn func(snap *Snapshot) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.loadLocked()
	if err := fn(&snap); err != nil {
		return err
	}
	return f.writeLocked(&snap)
}

func (f *File) writeLocked(snap *Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot %s: %w", f.path, err)
	}
	return nil
}

// Save shallow-merges a partial snapshot: only the fields set on the patch
// replace their counterparts, everything else is preserved.
func (f *File) Save(patch Patch) error {
	return f.Transact(func(snap *Snapshot) error {
		if patch.User != nil {
			snap.User = *patch.User
		}
		if patch.UsersDB != nil {
			snap.UsersDB = *patch.UsersDB
		}
		if patch.Listings != nil {
			snap.Listings = *patch.Listings
		}
		if patch.Inquiries != nil {
			snap.Inquiries = *patch.Inquiries
		}
		if patch.Conversations != nil {
			snap.Conversations = *patch.Conversations
		}
		return nil
	})
}
