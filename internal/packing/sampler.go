package packing

// Sampler keeps every stride-th value pushed to it.
type Sampler struct {
	stride  int
	count   int
	samples []float64
}

func NewSampler(stride int) *Sampler {
	if stride <= 0 {
		stride = 1
	}
	return &Sampler{stride: stride}
}

func (s *Sampler) Push(v float64) {
	if s.count%s.stride == 0 {
		s.samples = append(s.samples, v)
	}
	s.count++
}

// Samples returns a copy of the kept values.
func (s *Sampler) Samples() []float64 {
	return append([]float64(nil), s.samples...)
}

func (s *Sampler) Len() int { return len(s.samples) }

func (s *Sampler) Reset() {
	s.samples = s.samples[:0]
	s.count = 0
}
