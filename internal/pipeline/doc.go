// Package pipeline orchestrates a full processing run: discover candidates
// from each enabled archive, filter by date cutoff and prior state, download
// eligible videos, offload them to object storage while transcription runs,
// then transcribe, score, and render everything pending. It also carries the
// recovery operations exposed as their own CLI commands.
package pipeline
