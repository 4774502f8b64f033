// Package evaluation turns loaded samples and algorithm outputs into
// per-frame error records.
//
// Ground truth is reconstructed from each sample's labelled corners, frames
// ordered by image name. Every algorithm's per-frame output is then compared
// against the ground truth of the same sample and frame index. Samples are
// evaluated concurrently; the result order is always the input order.
package evaluation
