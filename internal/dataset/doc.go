// Package dataset reads the on-disk evaluation layout.
//
// Samples/ holds, per recorded sample, a ground-truth corner file (name
// contains "coordinates") and a marker size file (name contains
// "test_marker" and "_data"). Results/ holds per-algorithm detector and
// tracker outputs, execution times and optimisation FPS, each keyed by
// algorithm name in a JSON object whose key order is significant.
//
// Key types: Sample, SampleSet, Table, Series, Results, Timings.
package dataset
