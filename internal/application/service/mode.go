package service

import (
	"fmt"
	"sync"
	"time"
)

// StoreID tags which store a mode field points at.
type StoreID string

const (
	StoreLocal  StoreID = "local"
	StoreRemote StoreID = "remote"
)

// StorageMode is plain configuration data: which store is consulted
// first, which one backs it up, and whether successful remote reads are
// mirrored into the local cache.
type StorageMode struct {
	Primary  StoreID `json:"primary"`
	Fallback StoreID `json:"fallback"`
	AutoSync bool    `json:"auto_sync"`
}

// StorageStatus is the derived, read-only snapshot handed to callers.
type StorageStatus struct {
	Mode           StorageMode `json:"mode"`
	Online         bool        `json:"online"`
	Authenticated  bool        `json:"authenticated"`
	LastSync       *time.Time  `json:"last_sync"`
	SyncInProgress bool        `json:"sync_in_progress"`
}

// ModeController holds the active storage mode and user identity. It is
// an explicitly constructed context object so tests can run independent
// instances in parallel; there is no package-level state.
type ModeController struct {
	mu     sync.RWMutex
	mode   StorageMode
	userID string
}

// NewModeController starts in offline mode with no user identity.
func NewModeController() *ModeController {
	return &ModeController{
		mode: StorageMode{Primary: StoreLocal, Fallback: StoreLocal, AutoSync: false},
	}
}

// Configure sets an arbitrary mode, used for tests and overrides. A
// fallback that needs network access is a programming error and panics
// rather than persisting an unreachable-fallback configuration.
func (m *ModeController) Configure(mode StorageMode, userID string) {
	if mode.Fallback != StoreLocal {
		panic(fmt.Sprintf("storage mode fallback must be local, got %q", mode.Fallback))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.userID = userID
}

// EnableCloudMode switches to remote-primary with auto-sync, called once
// a user authenticates.
func (m *ModeController) EnableCloudMode(userID string) {
	m.Configure(StorageMode{Primary: StoreRemote, Fallback: StoreLocal, AutoSync: true}, userID)
}

// EnableOfflineMode switches to local-only operation, used for
// anonymous/demo sessions and on sign-out. Idempotent.
func (m *ModeController) EnableOfflineMode() {
	m.Configure(StorageMode{Primary: StoreLocal, Fallback: StoreLocal, AutoSync: false}, "")
}

// Mode returns the current mode snapshot.
func (m *ModeController) Mode() StorageMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// UserID returns the current user identity, empty when anonymous.
func (m *ModeController) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// Authenticated reports whether a user identity is present.
func (m *ModeController) Authenticated() bool {
	return m.UserID() != ""
}
