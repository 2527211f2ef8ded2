// Package analysis orchestrates scratch-index computation for experiments.
//
// The Orchestrator works against two collaborator ports, ImageStore and
// ExperimentStore, and offers two ways of keeping an experiment's result set
// current:
//
//   - AnalyzeSingleImage computes one image against the experiment's
//     reference and upserts its result.
//   - RecalculateExperiment recomputes every image in parallel and replaces
//     the whole set in a single write. If any image fails, nothing is
//     written and a *model.RecomputeAbortedError names the image.
//
// Writers for the same experiment are serialized by a per-experiment lock;
// different experiments never wait on each other. Read-only operations
// (GetImageHistogram, QuickAnalysis) take no lock.
package analysis
