// Package download acquires hearing videos. House videos are fetched over
// plain HTTP; Senate videos are captured from their HLS manifest with
// ffmpeg. Both paths are idempotent (an existing file is never refetched),
// clean up partial files on failure, and retry transient errors with
// exponential backoff.
package download
