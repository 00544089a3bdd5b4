package gorad

import "fmt"

// LinkID indexes a Link within a Store's arena.
type LinkID int32

// NoLink is the sentinel for an absent link reference.
const NoLink LinkID = -1

// Link is a directed coupling from a source element to a receiver element
// (§3 "Interaction"). It caches form-factor coefficients, one error
// estimate, visibility, and the basis-function counts exercised on each
// side.
type Link struct {
	id       LinkID
	Receiver ElementID
	Source   ElementID

	// K holds coupling coefficients in row-major [receiver][source] order,
	// length NReceiver*NSource (or length 1 in the scalar 1x1 case). A
	// duplicate link shares its origin's K/DeltaK slices and must not
	// mutate or free them independently (§3 "Duplicate flag").
	K      []float32
	DeltaK float32

	// Visibility is 0 (fully occluded) to 255 (fully unoccluded); a link
	// with Visibility==0 carries no energy and must be discarded (§3).
	Visibility uint8

	NReceiver     int // basis functions on the receiver actually used
	NSource       int // basis functions on the source actually used
	NReceiverCube int // number of receiver cubature positions; always 1 (§3)

	duplicate bool       // shares K/DeltaK storage with its origin; must not free it
	bucket    counterKey // cc/cs/sc/ss classification, stamped at creation
}

// ID returns the link's identity.
func (l *Link) ID() LinkID { return l.id }

// IsDuplicate reports whether this link shares coefficient storage with
// another (its origin); duplicates must never free K.
func (l *Link) IsDuplicate() bool { return l.duplicate }

// counterKey classifies a link by the kinds of its two endpoints for the
// cc/cs/sc/ss regression counters (§4.2).
type counterKey uint8

const (
	clusterCluster counterKey = iota
	clusterSurface
	surfaceCluster
	surfaceSurface
)

// Store is the link arena plus the global cc/cs/sc/ss breakdown counters
// (§4.2, §5, §8).
type Store struct {
	links  []Link
	nextID LinkID

	total   int
	byKind  [4]int
}

func newStore() Store { return Store{} }

// Total returns the number of live links.
func (s *Store) Total() int { return s.total }

// ClusterCluster, ClusterSurface, SurfaceCluster, SurfaceSurface report the
// live breakdown by endpoint kind, asserted to reach zero after teardown
// (§4.2 "Global counters").
func (s *Store) ClusterCluster() int { return s.byKind[clusterCluster] }
func (s *Store) ClusterSurface() int { return s.byKind[clusterSurface] }
func (s *Store) SurfaceCluster() int { return s.byKind[surfaceCluster] }
func (s *Store) SurfaceSurface() int { return s.byKind[surfaceSurface] }

// Link dereferences an id.
func (s *Store) Link(id LinkID) *Link {
	if id < 0 || int(id) >= len(s.links) {
		panic(fmt.Sprintf("gorad: invalid LinkID %d", id))
	}
	return &s.links[id]
}

// NewLink allocates owned coefficient storage sized nReceiver*nSource (or
// a single scalar when both are 1), copies k, and registers the link
// against the receiver/source kind counters. nReceiverCube must be 1; any
// other value is a programming error (higher-order receiver cubature is
// not implemented, §4.2).
func (s *Store) NewLink(h *Hierarchy, receiver, source ElementID, k []float32, deltaK float32, nReceiver, nSource, nReceiverCube int, vis uint8) LinkID {
	if nReceiverCube != 1 {
		panic("gorad: receiver cubature node count must be 1")
	}
	n := nReceiver * nSource
	if n < 1 {
		n = 1
	}
	if len(k) != n {
		panic(fmt.Sprintf("gorad: link coefficient count %d does not match nReceiver*nSource=%d", len(k), n))
	}
	owned := make([]float32, n)
	copy(owned, k)

	bucket := classify(h.Element(receiver).IsCluster(), h.Element(source).IsCluster())
	id := s.nextID
	s.nextID++
	s.links = append(s.links, Link{
		id:            id,
		Receiver:      receiver,
		Source:        source,
		K:             owned,
		DeltaK:        deltaK,
		Visibility:    vis,
		NReceiver:     nReceiver,
		NSource:       nSource,
		NReceiverCube: nReceiverCube,
		bucket:        bucket,
	})

	s.total++
	s.byKind[bucket]++
	return id
}

func classify(receiverCluster, sourceCluster bool) counterKey {
	switch {
	case receiverCluster && sourceCluster:
		return clusterCluster
	case receiverCluster && !sourceCluster:
		return clusterSurface
	case !receiverCluster && sourceCluster:
		return surfaceCluster
	default:
		return surfaceSurface
	}
}

// Duplicate returns a shallow copy of the link at id that shares K storage
// with the original and is marked as a duplicate (§4.2 "duplicate_link"):
// destroying a duplicate never frees storage.
func (s *Store) Duplicate(h *Hierarchy, id LinkID) LinkID {
	orig := s.Link(id)
	dupID := s.nextID
	s.nextID++
	dup := *orig
	dup.id = dupID
	dup.duplicate = true
	s.links = append(s.links, dup)

	s.total++
	s.byKind[dup.bucket]++
	return dupID
}

// StoreOn appends a duplicate of id to host's interaction list: shooting
// stores on the source, gathering on the receiver (§4.2 "store_on").
func (s *Store) StoreOn(h *Hierarchy, host ElementID, id LinkID) LinkID {
	dup := s.Duplicate(h, id)
	e := h.Element(host)
	e.links = append(e.links, dup)
	return dup
}

// Destroy frees a link's owned coefficient storage (unless it is a
// duplicate) and updates the interaction counters (§4.2). The cc/cs/sc/ss
// bucket was stamped at creation time so this works even after the
// link's endpoints have themselves been destroyed.
func (s *Store) Destroy(id LinkID) {
	l := s.Link(id)
	s.total--
	s.byKind[l.bucket]--
	if !l.duplicate {
		l.K = nil
	}
}
