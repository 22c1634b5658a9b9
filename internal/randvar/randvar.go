// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package randvar generates the random shapes used by randomized iterator tests:
// how many versions a key gets and which kind each version is.
package randvar

import "golang.org/x/exp/rand"

// Static models a random variable that pulls from a distribution with static
// bounds.
type Static interface {
	Uint64(rng *rand.Rand) uint64
}

// Uniform is a random variable with values in [min, max].
type Uniform struct {
	min, max uint64
}

// NewUniform returns a uniform random variable over [min, max].
func NewUniform(min, max uint64) *Uniform {
	return &Uniform{min: min, max: max}
}

// Uint64 returns a random value in [min, max].
func (g *Uniform) Uint64(rng *rand.Rand) uint64 {
	return rng.Uint64n(g.max-g.min+1) + g.min
}

// Weighted is a random number generator that generates numbers in the range
// [0,len(weights)-1] where the probability of i is weights(i)/sum(weights).
type Weighted struct {
	sum     float64
	weights []float64
}

// NewWeighted returns a new weighted random number generator.
func NewWeighted(weights ...float64) *Weighted {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return &Weighted{sum: sum, weights: weights}
}

// Int returns a random number in the range [0,len(weights)-1].
func (w *Weighted) Int(rng *rand.Rand) int {
	p := rng.Float64() * w.sum
	for i, weight := range w.weights {
		if p < weight {
			return i
		}
		p -= weight
	}
	return len(w.weights) - 1
}

// Mixture draws from one of several variables, picked by weight. A short run with
// an occasional long tail is NewMixture([]Static{short, long}, 3, 1).
type Mixture struct {
	pick *Weighted
	vars []Static
}

// NewMixture returns a variable that draws from vars[i] with probability
// weights[i]/sum(weights).
func NewMixture(vars []Static, weights ...float64) *Mixture {
	if len(vars) != len(weights) {
		panic("randvar: one weight per variable")
	}
	return &Mixture{pick: NewWeighted(weights...), vars: vars}
}

// Uint64 implements Static.
func (m *Mixture) Uint64(rng *rand.Rand) uint64 {
	return m.vars[m.pick.Int(rng)].Uint64(rng)
}
