// Package disk holds the byte storage adapters attachments write through.
package disk

import (
	"context"
	"errors"
)

// ErrStorage is the category error for failed writes. Write failures abort
// the flush they belong to; removal failures are logged by the adapters and
// never surface.
var ErrStorage = errors.New("storage operation failed")

// Visibility of a stored object. Only meaningful for backends with access
// control; the local adapter maps it to file permissions.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Disk is the narrow storage contract the attachment manager consumes.
// Implementations must be safe for concurrent use: many attachment
// instances can flush through one shared disk.
type Disk interface {
	// Remove deletes the given storage paths best-effort. Missing blobs
	// and individual failures are logged and skipped, never returned, so a
	// stale orphan cannot block a save cycle.
	Remove(ctx context.Context, paths []string)

	// Move reads the local source file and writes it to the target storage
	// path. The caller discards the source afterwards.
	Move(ctx context.Context, source, target string, vis Visibility) error
}

// Locator is implemented by disks whose stored objects are directly
// addressable on the local filesystem. Reprocessing reads existing
// variants back through it.
type Locator interface {
	Abs(path string) string
}
