package core

import "context"

// Identity is the record the auth gate returns for a verified credential.
type Identity struct {
	UserID      int64
	TenantID    int64
	Role        string
	DisplayName string
	Avatar      string
	PublicKey   string
}

// IdentityVerifier is the auth gate consumed by the connection gateway.
// Verification involves a profile lookup and may block.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}
