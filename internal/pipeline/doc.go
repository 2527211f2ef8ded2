// Package pipeline runs the per-image analysis stages and fans them out
// over many images.
//
// One image flows through the stages as a Frame:
//
//	load → decode → crop → grayscale → histogram
//
// Each stage is a Step that reads what earlier steps left on the frame and
// adds its own output. A Pipeline executes steps in order and stops at the
// first failure, since every stage depends on the previous one.
//
// BatchProcessor runs one pipeline per frame with bounded concurrency using
// errgroup. Frames share nothing mutable, so workers never coordinate; the
// first failure cancels the remaining work and is reported with the id of
// the image that caused it.
package pipeline
