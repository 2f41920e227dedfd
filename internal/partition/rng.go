package partition

import "math/rand/v2"

// pcgIncrement decorrelates the second PCG word from the seed
const pcgIncrement = 0x9E3779B97F4A7C15

// source is the single pseudorandom stream of one partitioning run. The generator and
// the bounded-integer reduction are fixed here rather than taken from library helpers
// so that a seed reproduces the same membership across Go releases.
type source struct {
	pcg *rand.PCG
}

func newSource(seed uint64) *source {
	return &source{pcg: rand.NewPCG(seed, seed^pcgIncrement)}
}

// intn returns a uniform integer in [0, n) by rejection sampling
func (s *source) intn(n int) int {
	if n <= 1 {
		return 0
	}
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % bound)
	for {
		v := s.pcg.Uint64()
		if v < limit {
			return int(v % bound)
		}
	}
}

// shuffle permutes ids in place with Fisher-Yates, walking from the end
func (s *source) shuffle(ids []int) {
	for i := len(ids) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
