// Package transcript defines the on-disk transcript document produced by
// the transcription stage and consumed by quality control and rendering.
// Documents are JSON files named after the source video, written atomically
// so QC annotations never corrupt an existing transcript.
package transcript
