package service

import "errors"

// ErrSyncInProgress is returned when Sync is called while another sync
// is already running. The caller should not retry immediately.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrCloudModeRequired is returned when Sync runs with a local-primary mode.
var ErrCloudModeRequired = errors.New("sync requires cloud mode")

// ErrNotAuthenticated is returned when Sync runs without a user identity.
var ErrNotAuthenticated = errors.New("sync requires an authenticated user")
