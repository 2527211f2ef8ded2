// Package model defines the value types shared by the analysis engine and
// its collaborators.
//
// This package contains the following main types:
//   - Region: the rectangle analyzed in every image of an experiment
//   - ImageRef: a stored image's id, experiment and pass count
//   - AnalysisResult / ResultSet: scratch indices persisted per experiment
//
// It also holds the error taxonomy (errors.go) so that storage, analysis and
// the CLI can match failures with errors.Is without importing each other.
package model
