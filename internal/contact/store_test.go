package contact_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/packsim/internal/contact"
)

var _ = Describe("PairStore", func() {
	var s *contact.PairStore

	BeforeEach(func() {
		s = contact.NewPairStore(4)
	})

	It("normalises the key order and flips the displacement", func() {
		Expect(s.Insert(5, 2, 1.5, r2.Vec{X: 1.5})).To(BeTrue())

		p, ok := s.Lookup(2, 5)
		Expect(ok).To(BeTrue())
		Expect(p.I).To(Equal(int32(2)))
		Expect(p.J).To(Equal(int32(5)))
		Expect(p.D).To(Equal(r2.Vec{X: -1.5}))

		_, ok = s.Lookup(5, 2)
		Expect(ok).To(BeTrue())
	})

	It("rejects a duplicate pair in either order", func() {
		Expect(s.Insert(1, 3, 1, r2.Vec{X: 1})).To(BeTrue())
		Expect(s.Insert(3, 1, 1, r2.Vec{X: -1})).To(BeFalse())
		Expect(s.Len()).To(Equal(1))
	})

	It("empties on Clear and accepts the same pair again", func() {
		s.Insert(0, 1, 1, r2.Vec{X: 1})
		s.Clear()
		Expect(s.Len()).To(BeZero())
		_, ok := s.Lookup(0, 1)
		Expect(ok).To(BeFalse())
		Expect(s.Insert(0, 1, 1, r2.Vec{X: 1})).To(BeTrue())
	})

	It("reduces antisymmetrically", func() {
		s.Insert(0, 1, 1, r2.Vec{X: 1})
		s.Insert(1, 2, 1, r2.Vec{Y: 1})
		vals := s.Map(func(p contact.Pair) r2.Vec { return r2.Scale(2, p.D) }, nil)
		Expect(vals).To(HaveLen(2))

		out := make([]float64, 6)
		s.ReduceAsym(vals, out)
		Expect(out).To(Equal([]float64{2, -2, 0, 0, 2, -2}))

		var sum float64
		for _, v := range out {
			sum += v
		}
		Expect(sum).To(BeZero())
	})
})

var _ = Describe("WallStore", func() {
	It("keeps one contact per sphere and scatters into it", func() {
		s := contact.NewWallStore(2)
		Expect(s.Insert(1, 0.5, r2.Vec{X: -1})).To(BeTrue())
		Expect(s.Insert(1, 0.2, r2.Vec{Y: 1})).To(BeFalse())

		w, ok := s.Lookup(1)
		Expect(ok).To(BeTrue())
		Expect(w.H).To(Equal(0.5))

		vals := s.Map(func(w contact.Wall) r2.Vec { return r2.Scale(w.H, w.N) }, nil)
		out := make([]float64, 4)
		s.Scatter(vals, out)
		Expect(out).To(Equal([]float64{0, -0.5, 0, 0}))

		s.Clear()
		Expect(s.Len()).To(BeZero())
	})
})
