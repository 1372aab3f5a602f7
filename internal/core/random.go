package core

import (
	"math"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"
)

// RandomContext bundles the random sources used by the generators: a numeric
// stream for distribution draws, a discrete stream for choices and integers,
// and a faker for names and free text. All three are re-seeded together by
// Reset so a generator entry point always starts from the same state.
type RandomContext struct {
	numeric *rand.Rand
	choice  *rand.Rand
	faker   *gofakeit.Faker
	seed    int64
}

// NewRandomContext creates a random context seeded with seed.
func NewRandomContext(seed int64) *RandomContext {
	rc := &RandomContext{}
	rc.Reset(seed)
	return rc
}

// Reset re-initialises every source from seed.
func (rc *RandomContext) Reset(seed int64) {
	rc.seed = seed
	rc.numeric = rand.New(rand.NewSource(deriveSeed(seed, 0)))
	rc.choice = rand.New(rand.NewSource(deriveSeed(seed, 1)))

	// gofakeit treats 0 as "seed from crypto/rand"
	fakerSeed := deriveSeed(seed, 2)
	if fakerSeed == 0 {
		fakerSeed = 1
	}
	rc.faker = gofakeit.New(fakerSeed)
}

// Seed returns the seed of the last Reset.
func (rc *RandomContext) Seed() int64 {
	return rc.seed
}

// deriveSeed mixes the base seed with a stream number (splitmix64 finaliser)
// so the three sources do not replay the same sequence.
func deriveSeed(seed int64, stream uint64) int64 {
	z := uint64(seed) + (stream+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int64(z)
}

// Gaussian returns a value from a normal distribution with the given mean and stdDev.
func (rc *RandomContext) Gaussian(mean, stdDev float64) float64 {
	return mean + rc.numeric.NormFloat64()*stdDev
}

// Exponential returns a value from an exponential distribution with the given mean (scale).
func (rc *RandomContext) Exponential(mean float64) float64 {
	return rc.numeric.ExpFloat64() * mean
}

// Uniform returns a uniform random value in [min, max).
func (rc *RandomContext) Uniform(min, max float64) float64 {
	return min + rc.choice.Float64()*(max-min)
}

// UniformInt returns a uniform random integer in [min, max].
func (rc *RandomContext) UniformInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + rc.choice.Intn(max-min+1)
}

// Bool returns true with the given probability.
func (rc *RandomContext) Bool(probability float64) bool {
	return rc.choice.Float64() < probability
}

// Float returns a uniform value in [0, 1).
func (rc *RandomContext) Float() float64 {
	return rc.choice.Float64()
}

// Index returns a uniform index in [0, n).
func (rc *RandomContext) Index(n int) int {
	if n <= 1 {
		return 0
	}
	return rc.choice.Intn(n)
}

// SelectWeighted selects from a slice of weights, returning the index.
func (rc *RandomContext) SelectWeighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	r := rc.choice.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Name returns a fake person name.
func (rc *RandomContext) Name() string {
	return rc.faker.Name()
}

// Sentence returns a fake sentence with the given number of words.
func (rc *RandomContext) Sentence(words int) string {
	return rc.faker.Sentence(words)
}

// Choose returns a uniformly chosen element of items.
func Choose[T any](rc *RandomContext, items []T) T {
	return items[rc.Index(len(items))]
}

// ChooseWeighted returns an element of items chosen with the given weights.
func ChooseWeighted[T any](rc *RandomContext, items []T, weights []float64) T {
	return items[rc.SelectWeighted(weights)]
}

// ChooseDistinct returns two different elements of items. items must hold at least two.
func ChooseDistinct[T any](rc *RandomContext, items []T) (T, T) {
	i := rc.Index(len(items))
	j := rc.Index(len(items) - 1)
	if j >= i {
		j++
	}
	return items[i], items[j]
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Clamp ensures a value is within bounds
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
