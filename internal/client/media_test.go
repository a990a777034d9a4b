package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// mediaUploadServer fakes the media upload conversation: entity creation,
// the transfer endpoint, and catalog registration.
type mediaUploadServer struct {
	mu          sync.Mutex
	server      *httptest.Server
	chunkRanges []string
	cancelled   []string
	registered  bool
	failUploads bool
}

func newMediaUploadServer(t *testing.T) *mediaUploadServer {
	t.Helper()

	s := &mediaUploadServer{}
	s.server = httptest.NewServer(nethttp.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)

	return s
}

func (s *mediaUploadServer) handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == nethttp.MethodPost && r.URL.Path == "/api/vdc/vdc-1/media":
		w.WriteHeader(nethttp.StatusCreated)
		fmt.Fprintf(w, `<Media xmlns="http://www.vmware.com/vcloud/v1.5" name="boot" href="https://vcloud.example.com/api/media/media-1">
			<Files>
				<File name="boot.iso" size="16" bytesTransferred="0">
					<Link rel="upload:default" href="%s/transfer/guid/boot.iso"/>
				</File>
			</Files>
		</Media>`, s.server.URL)
	case r.Method == nethttp.MethodPut && r.URL.Path == "/transfer/guid/boot.iso":
		if s.failUploads {
			w.WriteHeader(nethttp.StatusInternalServerError)
			_, _ = w.Write([]byte(`<Error message="transfer broken" majorErrorCode="500"/>`))

			return
		}

		s.chunkRanges = append(s.chunkRanges, r.Header.Get("Content-Range"))
	case r.Method == nethttp.MethodPost && r.URL.Path == "/api/catalog/cat-1/catalogItems":
		s.registered = true

		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`<CatalogItem xmlns="http://www.vmware.com/vcloud/v1.5" name="boot">
			<Entity name="boot" href="https://vcloud.example.com/api/media/media-1"/>
		</CatalogItem>`))
	case r.Method == nethttp.MethodGet && r.URL.Path == "/api/media/media-1":
		_, _ = w.Write([]byte(`<Media xmlns="http://www.vmware.com/vcloud/v1.5" href="https://vcloud.example.com/api/media/media-1">
			<Tasks>
				<Task href="https://vcloud.example.com/api/task/task-dead" status="error" operationName="vdcUploadMedia">
					<Error message="quota exceeded" majorErrorCode="400"/>
				</Task>
				<Task href="https://vcloud.example.com/api/task/task-live" status="running" operationName="vdcUploadMedia"/>
			</Tasks>
		</Media>`))
	case r.Method == nethttp.MethodPost && r.URL.Path == "/api/task/task-live/action/cancel":
		s.cancelled = append(s.cancelled, "task-live")
		w.WriteHeader(nethttp.StatusNoContent)
	case r.Method == nethttp.MethodPost && r.URL.Path == "/api/task/task-dead/action/cancel":
		s.cancelled = append(s.cancelled, "task-dead")
		w.WriteHeader(nethttp.StatusNoContent)
	default:
		w.WriteHeader(nethttp.StatusNotFound)
		_, _ = w.Write([]byte(`<Error message="no such endpoint" majorErrorCode="404"/>`))
	}
}

func newMediaTestClient(serverURL string) *MediaClient {
	httpClient := http.NewClient(serverURL, auth.NewTokenSession("token"))
	tasks := NewTasksClient(httpClient, time.Millisecond, 0)

	return NewMediaClient(httpClient, tasks, newUploader(httpClient, nil))
}

func TestMediaUpload(t *testing.T) {
	t.Parallel()

	s := newMediaUploadServer(t)
	localPath := writeTempFile(t, "boot.iso", 16)

	item, err := newMediaTestClient(s.server.URL).Upload(context.Background(), "vdc-1", "", "boot image", localPath, "cat-1", nil)
	require.NoError(t, err)

	// The name falls back to the file name without its .iso suffix.
	assert.Equal(t, "boot", item.Name)
	assert.Equal(t, "media-1", item.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, []string{"bytes 0-16/16"}, s.chunkRanges)
	assert.True(t, s.registered)
	assert.Empty(t, s.cancelled)
}

func TestMediaUploadFailureCancelsDanglingTasks(t *testing.T) {
	t.Parallel()

	s := newMediaUploadServer(t)
	s.failUploads = true
	localPath := writeTempFile(t, "boot.iso", 16)

	_, err := newMediaTestClient(s.server.URL).Upload(context.Background(), "vdc-1", "", "", localPath, "cat-1", &vcd.UploadOptions{
		RetryDelay:      time.Millisecond,
		MaxChunkRetries: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, vcd.ErrUploadAborted)

	// Only the running task is cancelled; the errored one is left alone.
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, []string{"task-live"}, s.cancelled)
	assert.False(t, s.registered)
}

func TestMediaUploadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := newMediaTestClient("https://vcloud.example.com").Upload(context.Background(), "vdc-1", "", "", "/does/not/exist.iso", "cat-1", nil)
	assert.ErrorIs(t, err, vcd.ErrFileNotFound)
}

func TestMediaUploadMissingUploadLink(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`<Media xmlns="http://www.vmware.com/vcloud/v1.5" href="https://vcloud.example.com/api/media/media-1"/>`))
	}))
	defer server.Close()

	localPath := writeTempFile(t, "boot.iso", 16)

	_, err := newMediaTestClient(server.URL).Upload(context.Background(), "vdc-1", "", "", localPath, "cat-1", nil)
	assert.ErrorIs(t, err, vcd.ErrMissingUploadLink)
}
