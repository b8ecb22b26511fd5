// Package survey owns the shared data model for reconstructing vehicle tracks
// from survey telemetry.
//
// The processing chain lives in subpackages and runs strictly forward:
//
//	aggregate -> depth -> transect -> reconstruct -> export
//
// This package holds the types passed between those stages (Observation,
// Sample, Float, Fix), the ordered fix-source fallback used for seeding, and
// the package log streams. It has no dependencies on the stages themselves.
//
// Dependency rule: subpackages may import survey, survey never imports a
// subpackage. No SQL or file I/O belongs here.
package survey
