// Package histogram builds 256-bucket brightness histograms from luminance
// grids and derives the summary statistics reported for each image.
package histogram
