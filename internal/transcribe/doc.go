// Package transcribe turns downloaded videos into transcript documents.
// The sweep walks the video directory in filename order, transcribing every
// video that is missing a transcript, so interrupted runs and videos added
// out of band are always caught up.
package transcribe
