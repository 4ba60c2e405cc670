package metrics

import "github.com/san-kum/packsim/internal/packing"

// ContactNumber is the mean number of particle contacts per body in the
// latest frame. Each contact touches two bodies.
type ContactNumber struct {
	name  string
	value float64
}

func NewContactNumber() *ContactNumber {
	return &ContactNumber{
		name: "contact_number",
	}
}

func (c *ContactNumber) Name() string {
	return c.name
}

func (c *ContactNumber) Observe(f packing.Frame) {
	n := f.Bodies()
	if n == 0 {
		return
	}
	c.value = 2 * float64(f.PairContacts) / float64(n)
}

func (c *ContactNumber) Value() float64 {
	return c.value
}

func (c *ContactNumber) Reset() {
	c.value = 0
}
