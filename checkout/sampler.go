package checkout

import "math/rand/v2"

// Sampler draws the random quantities of the model.
type Sampler interface {
	// InterarrivalTime returns an exponentially distributed time with the
	// given mean.
	InterarrivalTime(mean float64) float64

	// Items returns the number of items of a customer, in [1, maxItems].
	Items(maxItems int) int

	// TransactionTotal returns a sale amount in [15, 45).
	TransactionTotal() float64

	// LossFraction returns the fraction of a sale that is lost, in
	// [0.06, 0.21).
	LossFraction() float64
}

// RandomSampler is a Sampler backed by a seeded PCG source, so runs with the
// same seed draw the same values.
type RandomSampler struct {
	rng *rand.Rand
}

// NewRandomSampler creates a RandomSampler.
func NewRandomSampler(seed uint64) *RandomSampler {
	return &RandomSampler{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *RandomSampler) InterarrivalTime(mean float64) float64 {
	return s.rng.ExpFloat64() * mean
}

func (s *RandomSampler) Items(maxItems int) int {
	return s.rng.IntN(maxItems) + 1
}

func (s *RandomSampler) TransactionTotal() float64 {
	return s.rng.Float64() + float64(s.rng.IntN(30)+15)
}

func (s *RandomSampler) LossFraction() float64 {
	return s.rng.Float64()*0.15 + 0.06
}
