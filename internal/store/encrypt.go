package store

import (
	"context"
	"fmt"

	"github.com/parleyhq/parley/internal/models"
)

// Round snapshots carry the full negotiated legal text and are stored
// encrypted. Hashes, positions and section headings stay in plaintext
// so indexes and uniqueness constraints keep working.

// encryptSnapshots encrypts the HTML and text bodies of a draft for storage.
func (b *Base) encryptSnapshots(ctx context.Context, workspaceID, html, text string) (encHTML, encText string, err error) {
	encHTML, err = b.Crypto.Encrypt(ctx, workspaceID, []byte(html))
	if err != nil {
		return "", "", fmt.Errorf("encrypting snapshot html: %w", err)
	}

	encText, err = b.Crypto.Encrypt(ctx, workspaceID, []byte(text))
	if err != nil {
		return "", "", fmt.Errorf("encrypting snapshot text: %w", err)
	}

	return encHTML, encText, nil
}

// decryptRound replaces the ciphertext snapshot bodies on r with plaintext.
func (b *Base) decryptRound(ctx context.Context, workspaceID string, r *models.NegotiationRound) error {
	if r.SnapshotHTML != "" {
		html, err := b.Crypto.Decrypt(ctx, workspaceID, r.SnapshotHTML)
		if err != nil {
			return fmt.Errorf("decrypting snapshot html for round %s: %w", r.ID, err)
		}

		r.SnapshotHTML = string(html)
	}

	if r.SnapshotText != "" {
		text, err := b.Crypto.Decrypt(ctx, workspaceID, r.SnapshotText)
		if err != nil {
			return fmt.Errorf("decrypting snapshot text for round %s: %w", r.ID, err)
		}

		r.SnapshotText = string(text)
	}

	return nil
}
