package crypto

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
)

// StaticProvider returns a single key from a hex-encoded string for all
// workspaces. Intended for dev/test single-workspace use.
type StaticProvider struct {
	key      []byte
	firstWID string
	widOnce  sync.Once
}

// NewStaticProvider creates a StaticProvider from a hex-encoded 32-byte key.
func NewStaticProvider(hexKey string) (*StaticProvider, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("crypto/static: invalid hex key: %w", err)
	}

	if len(key) != 32 {
		return nil, fmt.Errorf("crypto/static: key must be 32 bytes, got %d", len(key))
	}

	return &StaticProvider{key: key}, nil
}

// GetKey returns a copy of the static key for the first workspace seen.
// Any other workspace ID is an error since multi-workspace deployments
// must use the vault provider.
func (p *StaticProvider) GetKey(_ context.Context, workspaceID string) ([]byte, error) {
	p.widOnce.Do(func() { p.firstWID = workspaceID })

	if workspaceID != p.firstWID {
		return nil, fmt.Errorf("crypto/static: multi-workspace use requires vault provider; saw workspace %s after %s", workspaceID, p.firstWID)
	}

	out := make([]byte, len(p.key))
	copy(out, p.key)
	return out, nil
}
