package setting

import "context"

// Repository is the single access point to persisted user settings.
type Repository interface {
	// Save persists all fields of s. Failures are reported as *LocalStorageError.
	Save(ctx context.Context, s UserSetting) error

	// Get returns a live stream of settings: one value shortly after the call,
	// then one per change. The channel is closed when ctx is done.
	Get(ctx context.Context) (<-chan UserSetting, error)
}
