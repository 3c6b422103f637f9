package math

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

func Series(factor float64, limit int) []float64 {
	xx := make([]float64, 0)
	for i := 0; i < limit; i++ {
		xx = append(xx, factor*float64(i))
	}
	return xx
}

// Gaussian draws n samples from N(mu,sigma) with an explicitly seeded source.
func Gaussian(seed uint64, mu, sigma float64, n int) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: rand.NewSource(seed)}
	xx := make([]float64, n)
	for i := range xx {
		xx[i] = dist.Rand()
	}
	return xx
}
