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
)

func newAdminTestClient(serverURL string) *AdminClient {
	return NewAdminClient(http.NewClient(serverURL, auth.NewTokenSession("token")))
}

func TestAdminVIMServers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/admin/extension/vimServerReferences", r.URL.Path)
		_, _ = w.Write([]byte(`<VMWVimServerReferences xmlns="http://www.vmware.com/vcloud/extension/v1.5">
			<VimServerReference name="vc-east" type="application/vnd.vmware.admin.vmwvirtualcenter+xml" href="https://vcloud.example.com/api/admin/extension/vimServer/vim-1"/>
			<VimServerReference name="ignored" type="application/vnd.vmware.admin.something-else+xml" href="https://vcloud.example.com/api/admin/extension/vimServer/vim-2"/>
		</VMWVimServerReferences>`))
	}))
	defer server.Close()

	servers, err := newAdminTestClient(server.URL).VIMServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vc-east": "vim-1"}, servers)
}

func TestAdminVIMHosts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/admin/extension/vimServer/vim-1/hostReferences", r.URL.Path)
		_, _ = w.Write([]byte(`<VMWHostReferences xmlns="http://www.vmware.com/vcloud/extension/v1.5">
			<HostReference name="esx-01" type="application/vnd.vmware.admin.host+xml" href="https://vcloud.example.com/api/admin/extension/host/host-1"/>
			<HostReference name="esx-02" type="application/vnd.vmware.admin.host+xml" href="https://vcloud.example.com/api/admin/extension/host/host-2"/>
		</VMWHostReferences>`))
	}))
	defer server.Close()

	hosts, err := newAdminTestClient(server.URL).VIMHosts(context.Background(), "vim-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"esx-01": "host-1", "esx-02": "host-2"}, hosts)
}
