package client

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

func newDisksTestClient(serverURL string) *DisksClient {
	return NewDisksClient(http.NewClient(serverURL, auth.NewTokenSession("token")), nil)
}

func TestDisksCreate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodPost, r.Method)
		require.Equal(t, "/api/vdc/vdc-1/disk", r.URL.Path)
		require.Equal(t, vcd.MimeDiskCreateParams, r.Header.Get("Content-Type"))

		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`<Disk xmlns="http://www.vmware.com/vcloud/v1.5" name="data" size="1073741824" href="https://vcloud.example.com/api/disk/disk-1">
			<Tasks>
				<Task href="https://vcloud.example.com/api/task/task-5" status="running" operationName="vdcCreateDisk"/>
			</Tasks>
		</Disk>`))
	}))
	defer server.Close()

	creation, err := newDisksTestClient(server.URL).Create(context.Background(), "vdc-1", "data", 1<<30, "scratch space")
	require.NoError(t, err)
	assert.Equal(t, "disk-1", creation.DiskID)
	assert.Equal(t, "task-5", creation.TaskID)
}

func TestDisksGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/disk/disk-1", r.URL.Path)
		_, _ = w.Write([]byte(`<Disk xmlns="http://www.vmware.com/vcloud/v1.5" name="data" size="1073741824" href="https://vcloud.example.com/api/disk/disk-1">
			<Description>scratch space</Description>
			<StorageProfile name="gold"/>
			<Owner><User name="alice"/></Owner>
		</Disk>`))
	}))
	defer server.Close()

	disk, err := newDisksTestClient(server.URL).Get(context.Background(), "disk-1")
	require.NoError(t, err)
	assert.Equal(t, "disk-1", disk.ID)
	assert.Equal(t, "data", disk.Name)
	assert.Equal(t, int64(1<<30), disk.Size)
	assert.Equal(t, "scratch space", disk.Description)
	assert.Equal(t, "gold", disk.StorageProfile)
	assert.Equal(t, "alice", disk.Owner)
}

func TestDisksDeleteTaskFromBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodDelete, r.Method)
		require.Equal(t, "/api/disk/disk-1", r.URL.Path)

		w.WriteHeader(nethttp.StatusAccepted)
		_, _ = w.Write([]byte(`<Task xmlns="http://www.vmware.com/vcloud/v1.5" href="https://vcloud.example.com/api/task/task-6" status="running" operationName="vdcDeleteDisk"/>`))
	}))
	defer server.Close()

	taskID, err := newDisksTestClient(server.URL).Delete(context.Background(), "disk-1")
	require.NoError(t, err)
	assert.Equal(t, "task-6", taskID)
}

func TestDisksAttachAndDetach(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		action   func(context.Context, *DisksClient) (string, error)
		wantPath string
	}{
		{
			name: "attach",
			action: func(ctx context.Context, c *DisksClient) (string, error) {
				return c.Attach(ctx, "disk-1", "123")
			},
			wantPath: "/api/vApp/vm-123/disk/action/attach",
		},
		{
			name: "detach",
			action: func(ctx context.Context, c *DisksClient) (string, error) {
				return c.Detach(ctx, "disk-1", "123")
			},
			wantPath: "/api/vApp/vm-123/disk/action/detach",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var path string

			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				path = r.URL.Path
				require.Equal(t, vcd.MimeDiskAttachDetach, r.Header.Get("Content-Type"))

				w.WriteHeader(nethttp.StatusAccepted)
				_, _ = w.Write([]byte(`<Task xmlns="http://www.vmware.com/vcloud/v1.5" href="https://vcloud.example.com/api/task/task-7" status="running"/>`))
			}))
			defer server.Close()

			taskID, err := tt.action(context.Background(), newDisksTestClient(server.URL))
			require.NoError(t, err)
			assert.Equal(t, "task-7", taskID)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
