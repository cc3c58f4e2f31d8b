// Package crypto provides workspace-aware AES-256-GCM encryption for
// negotiation snapshots at rest.
package crypto

import "context"

// KeyProvider returns AES-256 encryption keys for workspaces.
type KeyProvider interface {
	// GetKey returns the 32-byte AES-256 key for the given workspace.
	GetKey(ctx context.Context, workspaceID string) ([]byte, error)
}
