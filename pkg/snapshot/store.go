package snapshot

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spaolacci/murmur3"

	"github.com/dashdeck/dashboard-server/pkg/jsonutil"
)

// Store holds one validated snapshot for the lifetime of the process. It
// has no setters, so concurrent reads need no locking.
type Store struct {
	snap Snapshot
	data []byte
	etag string
}

// NewStore validates s and freezes a private copy of it together with its
// canonical encoding.
func NewStore(s Snapshot) (*Store, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	frozen := s.Clone()
	data, err := Canonical(frozen)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return &Store{
		snap: frozen,
		data: data,
		etag: etagFor(data),
	}, nil
}

// Get returns a deep copy of the held snapshot.
func (st *Store) Get() Snapshot {
	return st.snap.Clone()
}

// JSON returns a copy of the canonical encoding.
func (st *Store) JSON() []byte {
	return slices.Clone(st.data)
}

// Size is the length of the canonical encoding in bytes.
func (st *Store) Size() int {
	return len(st.data)
}

// ETag is a strong entity tag for the canonical encoding, quotes included.
func (st *Store) ETag() string {
	return st.etag
}

// Canonical is the single serialization used by every surface: map keys
// sorted, compact, no HTML escaping.
func Canonical(s Snapshot) ([]byte, error) {
	return jsonutil.MarshalCanonical(s)
}

func etagFor(data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf(`"%016x%016x"`, h1, h2)
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
