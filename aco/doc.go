// Package aco implements a Max-Min Ant System for the uncapacitated TPP.
//
// Each iteration a colony of ants builds routes by a roulette over
// pheromone, inverse distance and a purchase-share heuristic; promising ants
// receive the local-search battery; the iteration/restart/global best then
// deposits pheromone on a trail matrix clamped to the MMAS [τ_min, τ_max]
// band. Stagnation is detected through the average node branching factor and
// answered by resetting all trails to τ_max.
//
// The engine is single-threaded and, for a fixed seed, fully deterministic:
// ants are constructed and improved in id order and the pheromone update
// observes all post-local-search costs.
package aco
