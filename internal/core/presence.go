package core

import "sort"

// presenceRegistry maps a user identity to its active session. At most one
// live entry per user is retained; a new session for the same user
// supersedes the prior mapping (last-writer-wins). Owned by the hub
// goroutine, which serializes all access.
type presenceRegistry struct {
	byUser map[int64]*Session
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{byUser: make(map[int64]*Session)}
}

// register stores the mapping and returns the superseded session, if any.
func (p *presenceRegistry) register(sess *Session) *Session {
	prior := p.byUser[sess.UserID]
	p.byUser[sess.UserID] = sess
	if prior == sess {
		return nil
	}
	return prior
}

// unregister removes the mapping, but only if it still points at this
// session. A stale disconnect from a superseded session must not remove
// the newer session's entry.
func (p *presenceRegistry) unregister(sess *Session) bool {
	cur, ok := p.byUser[sess.UserID]
	if !ok || cur != sess {
		return false
	}
	delete(p.byUser, sess.UserID)
	return true
}

// snapshot returns a point-in-time copy of online user ids for one tenant,
// sorted for stable output.
func (p *presenceRegistry) snapshot(tenantID int64) []int64 {
	ids := make([]int64, 0, len(p.byUser))
	for userID, sess := range p.byUser {
		if sess.TenantID == tenantID {
			ids = append(ids, userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
