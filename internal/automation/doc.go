// Package automation runs scripted parameter sweeps. A sweep varies one model
// parameter over an evenly spaced range and runs a seeded ensemble at every
// value, summarizing each run metric by its mean and standard deviation.
//
// Sweeps can be described in YAML:
//
//	name: transmission
//	param: beta
//	min: 0.05
//	max: 0.3
//	points: 6
//	runs: 20
//	seed_start: 1
package automation
