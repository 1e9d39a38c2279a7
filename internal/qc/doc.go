// Package qc scores transcript quality from whisper decoder statistics.
// Each segment is checked against configurable thresholds; the transcript
// score is the fraction of clean segments, and the pass/fail verdict is
// annotated back into the transcript document so downstream rendering and
// recovery commands can act on it without re-scoring.
package qc
