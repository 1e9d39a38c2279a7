// Package offload moves videos to object storage concurrently with
// transcription. The background work only uploads; Finish applies the gated
// local deletion, so callers sequence it after the transcript exists. A
// failed upload always retains the local file.
package offload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gavel/internal/logging"
	"gavel/internal/services"
)

// Uploader is the storage operation the offloader needs.
type Uploader interface {
	Upload(ctx context.Context, videoPath string) (key string, err error)
}

// Result is the outcome of one offload.
type Result struct {
	Key      string
	Uploaded bool
	Deleted  bool
	Err      error
}

// Handle tracks an in-flight offload. Wait blocks until the upload
// finishes; there is no timeout because transcription on the same video
// routinely takes longer than the upload.
type Handle struct {
	videoPath string
	done      chan struct{}
	result    Result
}

// Wait blocks until the upload finishes and returns its result. The local
// file is untouched; use Offloader.Finish for the gated deletion.
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}

// Offloader starts background uploads.
type Offloader struct {
	uploader          Uploader
	deleteAfterUpload bool
	logger            *slog.Logger
}

// New builds an Offloader. A nil uploader disables offloading: Begin
// returns an immediately-completed handle that counts as a confirmed
// no-op upload, so Finish still reclaims the local file when deletion is
// enabled.
func New(uploader Uploader, deleteAfterUpload bool, logger *slog.Logger) *Offloader {
	return &Offloader{
		uploader:          uploader,
		deleteAfterUpload: deleteAfterUpload,
		logger:            logging.NewComponentLogger(logger, "offload"),
	}
}

// Enabled reports whether uploads will actually happen.
func (o *Offloader) Enabled() bool {
	return o.uploader != nil
}

// Begin starts uploading videoPath in the background and returns a handle
// to wait on.
func (o *Offloader) Begin(ctx context.Context, videoPath string) *Handle {
	handle := &Handle{videoPath: videoPath, done: make(chan struct{})}

	if o.uploader == nil {
		handle.result = Result{}
		close(handle.done)
		return handle
	}

	go func() {
		defer close(handle.done)
		identifier := filepath.Base(videoPath)

		key, err := o.uploader.Upload(ctx, videoPath)
		if err != nil {
			o.logger.Error("upload failed, local file retained",
				logging.String(logging.FieldIdentifier, identifier),
				logging.Error(err))
			handle.result = Result{Err: services.Wrap(services.ErrOffload, "offload", "upload", identifier, err)}
			return
		}

		handle.result = Result{Key: key, Uploaded: true}
		o.logger.Info("upload complete",
			logging.String(logging.FieldIdentifier, identifier),
			logging.String("key", key))
	}()
	return handle
}

// Finish waits for the upload and then deletes the local file when deletion
// is enabled and the upload was confirmed. With offloading disabled the
// gate passes trivially and reclamation still applies. Callers run it only
// once the video is no longer needed locally.
func (o *Offloader) Finish(handle *Handle) Result {
	result := handle.Wait()
	confirmed := result.Uploaded || !o.Enabled()
	if result.Err != nil || !confirmed || !o.deleteAfterUpload {
		return result
	}

	identifier := filepath.Base(handle.videoPath)
	if err := os.Remove(handle.videoPath); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("could not delete local video after upload",
			logging.String(logging.FieldIdentifier, identifier),
			logging.Error(err))
		return result
	}
	result.Deleted = true
	o.logger.Info("local video deleted",
		logging.String(logging.FieldIdentifier, identifier))
	return result
}
