package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Gateway performs the connection handshake: it verifies the bearer
// credential through the auth gate, enforces tenant/role consistency with
// the values the client declared, and registers the resulting session.
type Gateway struct {
	verifier IdentityVerifier
	hub      *Hub
	log      *zerolog.Logger
}

// NewGateway builds a gateway over the given verifier and hub.
func NewGateway(verifier IdentityVerifier, hub *Hub, logger *zerolog.Logger) *Gateway {
	return &Gateway{verifier: verifier, hub: hub, log: logger}
}

// Establish authenticates a new connection. On success the session is
// Active, registered in the presence registry, and its tenant peers have
// been sent a UserOnline event. On failure the returned *AuthError
// carries the rejection code and the session never registers presence.
func (g *Gateway) Establish(ctx context.Context, credential string, claimedTenant int64, claimedRole string) (*Session, error) {
	sess := NewSession()
	sess.setState(StateAuthenticating)

	if credential == "" {
		sess.setState(StateRejected)
		return nil, authError(ErrCodeMissingCredential, "no credential supplied")
	}

	identity, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		sess.setState(StateRejected)
		g.log.Debug().Err(err).Msg("credential verification failed")
		return nil, authError(ErrCodeInvalidCredential, "credential rejected")
	}

	if identity.TenantID != claimedTenant {
		sess.setState(StateRejected)
		return nil, authError(ErrCodeTenantMismatch, "declared tenant does not match identity")
	}
	if identity.Role != claimedRole {
		sess.setState(StateRejected)
		return nil, authError(ErrCodeRoleMismatch, "declared role does not match identity")
	}

	sess.bind(identity)
	sess.setState(StateActive)
	g.hub.RegisterSession(sess)

	g.log.Info().
		Str("session_id", sess.ID).
		Int64("user_id", sess.UserID).
		Int64("tenant_id", sess.TenantID).
		Msg("session established")

	return sess, nil
}
