// Package rng provides the deterministic pseudo-random engine shared by all
// randomized solver components.
//
// The generator is xoroshiro128+ (Blackman & Vigna,
// http://xoroshiro.di.unimi.it/): tiny state, very fast, and more than good
// enough for stochastic search. The same seed always reproduces the same
// stream, which makes whole runs replayable.
//
// A process-wide default engine exists for convenience (the CLI seeds it
// once, from --seed or the wall clock); every randomized operator also
// accepts an explicit *Engine so tests can pin their own streams.
package rng
