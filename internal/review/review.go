// Package review tracks the operator's decisions for one authoring action:
// the discoveries and conflicts of a scan live here for exactly as long as
// the review session, and commit is gated until every one of them has left
// the pending state.
//
// Discovery transitions: pending → create_stub | link_existing | ignore,
// plus ignore → create_stub (an ignored mention can be opted back in) and
// create_stub → ignore. Conflict resolutions are one-way: once set they are
// not revisited.
package review

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/canonry/pkg/canon"
)

// ErrUnknownDiscovery is returned when the discovery ID is not part of this
// session.
var ErrUnknownDiscovery = errors.New("review: unknown discovery")

// ErrUnknownConflict is returned when the conflict ID is not part of this
// session.
var ErrUnknownConflict = errors.New("review: unknown conflict")

// ErrInvalidTransition is returned for a state change the machines do not
// permit.
var ErrInvalidTransition = errors.New("review: invalid transition")

// ErrMissingLink is returned when resolving a discovery as link_existing
// without a target entity ID.
var ErrMissingLink = errors.New("review: link_existing requires a target entity id")

// Session holds the mutable review state for one scan result. It is safe
// for concurrent use, though the workflow is single-operator by design.
type Session struct {
	mu sync.Mutex

	discoveries map[string]*canon.Discovery
	conflicts   map[string]*canon.Conflict

	// insertion order, for deterministic snapshots
	discoveryOrder []string
	conflictOrder  []string
}

// NewSession starts a review session over the given scan result.
func NewSession(res canon.ScanResult) *Session {
	s := &Session{
		discoveries: make(map[string]*canon.Discovery, len(res.Discoveries)),
		conflicts:   make(map[string]*canon.Conflict, len(res.Conflicts)),
	}
	for _, d := range res.Discoveries {
		if _, dup := s.discoveries[d.ID]; dup {
			continue
		}
		s.discoveries[d.ID] = &d
		s.discoveryOrder = append(s.discoveryOrder, d.ID)
	}
	for _, c := range res.Conflicts {
		if _, dup := s.conflicts[c.ID]; dup {
			continue
		}
		s.conflicts[c.ID] = &c
		s.conflictOrder = append(s.conflictOrder, c.ID)
	}
	return s
}

// ResolveDiscovery applies an operator decision to one discovery.
// linkedEntityID is required for [canon.DiscoveryLinkExisting] and ignored
// otherwise.
func (s *Session) ResolveDiscovery(id string, status canon.DiscoveryStatus, linkedEntityID string) error {
	if !status.IsValid() || status == canon.DiscoveryPending {
		return fmt.Errorf("%w: discovery %q → %q", ErrInvalidTransition, id, status)
	}
	if status == canon.DiscoveryLinkExisting && linkedEntityID == "" {
		return ErrMissingLink
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discoveries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDiscovery, id)
	}
	if !discoveryTransitionOK(d.Status, status) {
		return fmt.Errorf("%w: discovery %q: %s → %s", ErrInvalidTransition, id, d.Status, status)
	}

	d.Status = status
	if status == canon.DiscoveryLinkExisting {
		d.LinkedEntityID = linkedEntityID
	} else {
		d.LinkedEntityID = ""
	}
	return nil
}

// discoveryTransitionOK encodes the discovery state machine.
func discoveryTransitionOK(from, to canon.DiscoveryStatus) bool {
	switch from {
	case canon.DiscoveryPending:
		return true
	case canon.DiscoveryIgnore:
		return to == canon.DiscoveryCreateStub
	case canon.DiscoveryCreateStub:
		return to == canon.DiscoveryIgnore
	default:
		return false
	}
}

// ResolveConflict applies an operator decision to one conflict. Conflict
// resolutions are one-way: a resolved conflict cannot be re-resolved.
func (s *Session) ResolveConflict(id string, resolution canon.ConflictResolution) error {
	if !resolution.IsValid() || resolution == canon.ResolutionPending {
		return fmt.Errorf("%w: conflict %q → %q", ErrInvalidTransition, id, resolution)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conflicts[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConflict, id)
	}
	if c.Resolution != canon.ResolutionPending {
		return fmt.Errorf("%w: conflict %q already resolved as %s", ErrInvalidTransition, id, c.Resolution)
	}

	c.Resolution = resolution
	return nil
}

// CanCommit reports whether every discovery and every conflict has left the
// pending state.
func (s *Session) CanCommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.discoveries {
		if d.Status == canon.DiscoveryPending {
			return false
		}
	}
	for _, c := range s.conflicts {
		if c.Resolution == canon.ResolutionPending {
			return false
		}
	}
	return true
}

// Discoveries returns a snapshot of the session's discoveries in insertion
// order.
func (s *Session) Discoveries() []canon.Discovery {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]canon.Discovery, 0, len(s.discoveryOrder))
	for _, id := range s.discoveryOrder {
		out = append(out, *s.discoveries[id])
	}
	return out
}

// Conflicts returns a snapshot of the session's conflicts in insertion
// order.
func (s *Session) Conflicts() []canon.Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]canon.Conflict, 0, len(s.conflictOrder))
	for _, id := range s.conflictOrder {
		out = append(out, *s.conflicts[id])
	}
	return out
}

// Rescan replaces the session contents with a fresh scan result, carrying
// over decisions already made for discoveries and conflicts that survived
// the edit. Discovery identity is keyed by normalized text, so resolutions
// follow a name even when its position in the text shifts.
func (s *Session) Rescan(res canon.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevDiscoveries := s.discoveries
	prevConflicts := s.conflicts

	s.discoveries = make(map[string]*canon.Discovery, len(res.Discoveries))
	s.conflicts = make(map[string]*canon.Conflict, len(res.Conflicts))
	s.discoveryOrder = s.discoveryOrder[:0]
	s.conflictOrder = s.conflictOrder[:0]

	for _, d := range res.Discoveries {
		if _, dup := s.discoveries[d.ID]; dup {
			continue
		}
		if prev, ok := prevDiscoveries[d.ID]; ok {
			d.Status = prev.Status
			d.LinkedEntityID = prev.LinkedEntityID
			d.StubID = prev.StubID
		}
		s.discoveries[d.ID] = &d
		s.discoveryOrder = append(s.discoveryOrder, d.ID)
	}
	for _, c := range res.Conflicts {
		if _, dup := s.conflicts[c.ID]; dup {
			continue
		}
		if prev, ok := prevConflicts[c.ID]; ok {
			c.Resolution = prev.Resolution
		}
		s.conflicts[c.ID] = &c
		s.conflictOrder = append(s.conflictOrder, c.ID)
	}
}

// MarkStub records the materialized stub entity for a discovery. Used when
// stubs are created ahead of commit.
func (s *Session) MarkStub(discoveryID, stubID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discoveries[discoveryID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDiscovery, discoveryID)
	}
	d.StubID = stubID
	return nil
}
