package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudgrid-io/vcd/internal/constants"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// uploader streams local files to transfer endpoints in Content-Range
// chunks. Media and template uploads share one instance.
type uploader struct {
	httpClient *http.Client
	logger     vcd.Logger
}

func newUploader(httpClient *http.Client, logger vcd.Logger) *uploader {
	return &uploader{httpClient: httpClient, logger: logger}
}

// UploadFile PUTs localPath to uploadPath one chunk at a time. A failed
// chunk is retried in place after a delay rather than aborting the whole
// transfer; MaxChunkRetries caps the retries, zero retries forever.
// progressPath, when non-empty, names the entity document polled for
// bytesTransferred after each chunk.
func (u *uploader) UploadFile(ctx context.Context, uploadPath, localPath, progressPath string, opts *vcd.UploadOptions) error {
	if opts == nil {
		opts = &vcd.UploadOptions{}
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = constants.DefaultChunkSize
	}

	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = constants.DefaultChunkRetryDelay
	}

	file, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", vcd.ErrFileNotFound, localPath)
		}

		return fmt.Errorf("opening upload file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stating upload file: %w", err)
	}

	total := info.Size()
	fileName := filepath.Base(localPath)

	if u.logger != nil {
		u.logger.Info("uploading file", map[string]interface{}{
			"file": localPath,
			"size": total,
		})
	}

	chunk := make([]byte, chunkSize)

	var offset int64

	for offset < total {
		n, err := io.ReadFull(file, chunk)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading chunk at offset %d: %w", offset, err)
		}

		if n == 0 {
			break
		}

		rangeEnd := offset + int64(n)

		err = u.uploadChunk(ctx, uploadPath, chunk[:n], offset, rangeEnd, total, retryDelay, opts.MaxChunkRetries)
		if err != nil {
			return err
		}

		offset = rangeEnd

		u.reportProgress(ctx, progressPath, fileName, total, opts.Progress)
	}

	return nil
}

// uploadChunk retries one Content-Range PUT until it succeeds or the retry
// budget runs out.
func (u *uploader) uploadChunk(ctx context.Context, uploadPath string, chunk []byte, rangeStart, rangeEnd, total int64, retryDelay time.Duration, maxRetries int) error {
	attempts := 0

	for {
		_, err := u.httpClient.UploadChunk(ctx, uploadPath, chunk, rangeStart, rangeEnd, total)
		if err == nil {
			return nil
		}

		attempts++

		if maxRetries > 0 && attempts > maxRetries {
			return fmt.Errorf("%w: bytes %d-%d/%d: %w", vcd.ErrUploadAborted, rangeStart, rangeEnd, total, err)
		}

		if u.logger != nil {
			u.logger.Warn("chunk upload failed, retrying", map[string]interface{}{
				"range":       fmt.Sprintf("bytes %d-%d/%d", rangeStart, rangeEnd, total),
				"retry_delay": retryDelay.String(),
				"error":       err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", vcd.ErrUploadAborted, ctx.Err())
		case <-time.After(retryDelay):
		}
	}
}

// reportProgress queries the transfer document for the server-side byte
// count of the named file. Progress errors never fail the upload.
func (u *uploader) reportProgress(ctx context.Context, progressPath, fileName string, total int64, progress vcd.ProgressFunc) {
	if progress == nil || progressPath == "" {
		return
	}

	resp, err := u.httpClient.Get(ctx, progressPath)
	if err != nil {
		return
	}

	var doc vcd.TransferDocument

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return
	}

	if transferred, ok := doc.BytesTransferred(fileName); ok {
		progress(transferred, total)
	}
}
