// Package report aggregates per-frame error records and timing measurements
// into the tabular results: per-sample and overall means, undetected frame
// counts, execution time and optimisation FPS averages, FPS histogram
// buckets, and the detection and tracking comparison tables in CSV and
// plain-text form.
package report
