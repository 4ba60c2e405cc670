package contact_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/packsim/internal/contact"
	"github.com/san-kum/packsim/internal/geom"
	"github.com/san-kum/packsim/internal/grid"
)

const halfBox = 12.0

// scatter places n spheres uniformly in the disc of the given radius.
func scatter(rng *rand.Rand, n int, radius float64) ([]float64, []float64) {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for k := range xs {
		r := radius * math.Sqrt(rng.Float64())
		phi := 2 * math.Pi * rng.Float64()
		xs[k], ys[k] = r*math.Cos(phi), r*math.Sin(phi)
	}
	return xs, ys
}

func detect(xs, ys []float64, bodies, capacity int) (*contact.PairStore, int) {
	g := grid.New(halfBox+1, halfBox+1, capacity)
	Expect(g.Build(xs, ys)).To(Succeed())
	s := contact.NewPairStore(len(xs))
	return s, contact.DetectPairs(g, xs, ys, bodies, s)
}

func expectSameContacts(got, want *contact.PairStore) {
	Expect(got.Len()).To(Equal(want.Len()))
	for _, w := range want.Entries() {
		g, ok := got.Lookup(int(w.I), int(w.J))
		Expect(ok).To(BeTrue(), "missing pair (%d, %d)", w.I, w.J)
		Expect(g.R).To(Equal(w.R))
		Expect(g.D).To(Equal(w.D))
	}
}

var _ = Describe("DetectPairs", func() {
	DescribeTable("matches the brute-force reference",
		func(seed int64, n, bodies int) {
			rng := rand.New(rand.NewSource(seed))
			xs, ys := scatter(rng, n, halfBox)

			got, attempts := detect(xs, ys, bodies, n)
			Expect(attempts).To(Equal(got.Len()), "a pair was visited twice")

			want := contact.NewPairStore(n)
			contact.BruteForcePairs(xs, ys, bodies, want)
			expectSameContacts(got, want)
		},
		Entry("dilute", int64(1), 20, 20),
		Entry("moderate", int64(2), 120, 40),
		Entry("dense", int64(3), 400, 100),
		Entry("single sphere per body", int64(4), 250, 250),
	)

	It("finds nothing when spheres are far apart", func() {
		var xs, ys []float64
		for x := -9.0; x <= 9; x += 3 {
			for y := -9.0; y <= 9; y += 3 {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		got, attempts := detect(xs, ys, len(xs), 4)
		Expect(attempts).To(BeZero())
		Expect(got.Len()).To(BeZero())
	})

	It("handles a fully packed lattice", func() {
		var xs, ys []float64
		for x := -8.5; x < 8.5; x += 1.0 {
			for y := -8.5; y < 8.5; y += 1.0 {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		got, attempts := detect(xs, ys, len(xs), 8)
		Expect(attempts).To(Equal(got.Len()))

		want := contact.NewPairStore(len(xs))
		contact.BruteForcePairs(xs, ys, len(xs), want)
		expectSameContacts(got, want)
	})

	It("skips spheres of the same body", func() {
		// Spheres 0 and 2 both belong to body 0 of 2.
		xs := []float64{0, 5, 1}
		ys := []float64{0, 5, 0}
		got, _ := detect(xs, ys, 2, 4)
		Expect(got.Len()).To(BeZero())

		got, _ = detect(xs, ys, 3, 4)
		Expect(got.Len()).To(Equal(1))
	})
})

var _ = Describe("DetectWalls", func() {
	It("records spheres within one radius of the wall", func() {
		c := geom.NewCircle(10)
		xs := []float64{0, 9.5, 0, 10.5}
		ys := []float64{0, 0, -9.2, 0}
		s := contact.NewWallStore(4)
		contact.DetectWalls(c, xs, ys, s)

		Expect(s.Len()).To(Equal(3))
		_, ok := s.Lookup(0)
		Expect(ok).To(BeFalse())

		w, ok := s.Lookup(1)
		Expect(ok).To(BeTrue())
		Expect(w.H).To(BeNumerically("~", 0.5, 1e-12))
		Expect(w.N.X).To(BeNumerically("~", -1, 1e-12))

		w, _ = s.Lookup(3)
		Expect(w.H).To(BeNumerically("<", 0))
	})

	It("agrees with the circle for a round ellipse", func() {
		rng := rand.New(rand.NewSource(9))
		xs, ys := scatter(rng, 300, 10.5)
		circ := contact.NewWallStore(8)
		ell := contact.NewWallStore(8)
		contact.DetectWalls(geom.NewCircle(10), xs, ys, circ)
		contact.DetectWalls(geom.NewEllipse(10, 10), xs, ys, ell)

		Expect(ell.Len()).To(Equal(circ.Len()))
		for _, w := range circ.Entries() {
			e, ok := ell.Lookup(int(w.I))
			Expect(ok).To(BeTrue())
			Expect(e.H).To(BeNumerically("~", w.H, 1e-8))
			Expect(r2.Norm(r2.Sub(e.N, w.N))).To(BeNumerically("<", 1e-6))
		}
	})
})
