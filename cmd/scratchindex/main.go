// Package main provides the entry point for the scratchindex CLI.
//
// scratchindex measures abrasion damage on film samples: every experiment
// holds one untouched reference image and images taken after N abrasion
// passes, and each image is scored against the reference.
//
// Usage:
//
//	scratchindex experiment create --name "PET 50um"
//	scratchindex image add <experiment-id> --passes 0 reference.png
//	scratchindex report <experiment-id> --markdown
//
// See --help for all available options.
package main

func main() {
	Execute()
}
