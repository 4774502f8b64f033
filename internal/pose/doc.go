// Package pose owns marker pose reconstruction and pose comparison.
//
// Responsibilities: turning four observed marker corners into a 3D pose
// under a fixed pinhole camera, and scoring an estimated pose against a
// ground-truth pose (translation distance and facing-direction angle).
// Key types: Corners, Size, Camera, Pose, Observation, FrameError.
//
// Everything here is a pure function of its inputs. Batch orchestration,
// file I/O and aggregation live in the evaluation and report packages.
package pose
