// Package scratch computes the scratch index: a [0, 1] damage score that
// compares the brightness histogram of an abraded film against its
// untouched reference.
//
// For each brightness level q the share of pixels r(q) = count(q)/total is
// taken from both histograms, and
//
//	raw = Σ_{q=0}^{255} w(q) · |r_ref(q) − r_test(q)|
//
// where w is a Weighting that grows toward white, because a bright, reflective
// surface is the undamaged state. The default is w(q) = q/255. raw is then
// divided by a Normalization constant and clamped to [0, 1].
package scratch
