// Package contact holds the sparse per-step contact data of a packing run:
// particle-particle contacts keyed by an unordered sphere pair and
// particle-wall contacts keyed by a single sphere.
//
// Both stores follow an insert, iterate, clear lifecycle. Entries are kept in
// insertion order so reductions are deterministic; a hash index backs
// lookups and rejects duplicate keys.
package contact

import (
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// PairCutoff is the centre distance below which two unit spheres touch.
	PairCutoff   = 2.0
	pairCutoffSq = PairCutoff * PairCutoff
	// WallCutoff is the gap below which a sphere touches the wall.
	WallCutoff = 1.0
)

// Pair is a particle-particle contact. I < J and D = p_I - p_J.
type Pair struct {
	I, J int32
	R    float64
	D    r2.Vec
}

// Wall is a particle-wall contact. N is the unit gradient of the gap H,
// pointing into the interior.
type Wall struct {
	I int32
	H float64
	N r2.Vec
}

func pairKey(i, j int32) uint64 {
	return uint64(uint32(i))<<32 | uint64(uint32(j))
}

type PairStore struct {
	entries []Pair
	index   map[uint64]int32
}

// NewPairStore reserves room for about hint contacts.
func NewPairStore(hint int) *PairStore {
	return &PairStore{
		entries: make([]Pair, 0, hint),
		index:   make(map[uint64]int32, hint),
	}
}

// Insert records the contact between spheres i and j, where d = p_i - p_j.
// It reports false if the pair is already present.
func (s *PairStore) Insert(i, j int, r float64, d r2.Vec) bool {
	a, b := int32(i), int32(j)
	if a > b {
		a, b = b, a
		d = r2.Scale(-1, d)
	}
	key := pairKey(a, b)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = int32(len(s.entries))
	s.entries = append(s.entries, Pair{I: a, J: b, R: r, D: d})
	return true
}

// Lookup finds the contact of the unordered pair (i, j). The returned
// displacement is p_min - p_max.
func (s *PairStore) Lookup(i, j int) (Pair, bool) {
	a, b := int32(i), int32(j)
	if a > b {
		a, b = b, a
	}
	k, ok := s.index[pairKey(a, b)]
	if !ok {
		return Pair{}, false
	}
	return s.entries[k], true
}

func (s *PairStore) Len() int { return len(s.entries) }

// Entries exposes the stored contacts in insertion order. Read only.
func (s *PairStore) Entries() []Pair { return s.entries }

func (s *PairStore) Clear() {
	s.entries = s.entries[:0]
	clear(s.index)
}

// Map applies f to every contact, writing results aligned with Entries.
// dst is reused when it has room.
func (s *PairStore) Map(f func(Pair) r2.Vec, dst []r2.Vec) []r2.Vec {
	dst = resize(dst, len(s.entries))
	for k, p := range s.entries {
		dst[k] = f(p)
	}
	return dst
}

// ReduceAsym accumulates per-pair vectors into a per-sphere field laid out
// as [x_0..x_{n-1}, y_0..y_{n-1}]: the value is added to sphere I and
// subtracted from sphere J.
func (s *PairStore) ReduceAsym(vals []r2.Vec, out []float64) {
	n := len(out) / 2
	for k, p := range s.entries {
		v := vals[k]
		out[p.I] += v.X
		out[n+int(p.I)] += v.Y
		out[p.J] -= v.X
		out[n+int(p.J)] -= v.Y
	}
}

type WallStore struct {
	entries []Wall
	index   map[int32]int32
}

func NewWallStore(hint int) *WallStore {
	return &WallStore{
		entries: make([]Wall, 0, hint),
		index:   make(map[int32]int32, hint),
	}
}

func (s *WallStore) Insert(i int, h float64, n r2.Vec) bool {
	id := int32(i)
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = int32(len(s.entries))
	s.entries = append(s.entries, Wall{I: id, H: h, N: n})
	return true
}

func (s *WallStore) Lookup(i int) (Wall, bool) {
	k, ok := s.index[int32(i)]
	if !ok {
		return Wall{}, false
	}
	return s.entries[k], true
}

func (s *WallStore) Len() int        { return len(s.entries) }
func (s *WallStore) Entries() []Wall { return s.entries }

func (s *WallStore) Clear() {
	s.entries = s.entries[:0]
	clear(s.index)
}

func (s *WallStore) Map(f func(Wall) r2.Vec, dst []r2.Vec) []r2.Vec {
	dst = resize(dst, len(s.entries))
	for k, w := range s.entries {
		dst[k] = f(w)
	}
	return dst
}

// Scatter adds each wall vector to its sphere in out.
func (s *WallStore) Scatter(vals []r2.Vec, out []float64) {
	n := len(out) / 2
	for k, w := range s.entries {
		out[w.I] += vals[k].X
		out[n+int(w.I)] += vals[k].Y
	}
}

func resize(dst []r2.Vec, n int) []r2.Vec {
	if cap(dst) < n {
		return make([]r2.Vec, n)
	}
	return dst[:n]
}
