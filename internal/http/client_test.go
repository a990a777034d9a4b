package http_test

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

func TestClientSuccessStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []int{200, 201, 202, 204} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			client := http.NewClient(server.URL, auth.NewTokenSession("token"))

			resp, err := client.Get(context.Background(), "/org")
			require.NoError(t, err)
			assert.Equal(t, status, resp.StatusCode)
		})
	}
}

func TestClientUnexpectedSub400StatusReturnsWithoutError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(203)
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("token"))

	resp, err := client.Get(context.Background(), "/org")
	require.NoError(t, err)
	assert.Equal(t, 203, resp.StatusCode)
}

func TestClientSendsVersionedAcceptHeader(t *testing.T) {
	t.Parallel()

	var accept string

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		accept = r.Header.Get("Accept")
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("token"), http.WithAPIVersion("5.5"))

	_, err := client.Get(context.Background(), "/org")
	require.NoError(t, err)
	assert.Equal(t, "application/*+xml;version=5.5", accept)
}

func TestClientDefaultsToAPIVersion51(t *testing.T) {
	t.Parallel()

	var accept string

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		accept = r.Header.Get("Accept")
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("token"))

	_, err := client.Get(context.Background(), "/org")
	require.NoError(t, err)
	assert.Equal(t, "application/*+xml;version=5.1", accept)
}

func TestClientAuthHeaders(t *testing.T) {
	t.Parallel()

	t.Run("token session sends the auth header", func(t *testing.T) {
		t.Parallel()

		var token string

		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			token = r.Header.Get("x-vcloud-authorization")
		}))
		defer server.Close()

		client := http.NewClient(server.URL, auth.NewTokenSession("secret-token"))

		_, err := client.Get(context.Background(), "/org")
		require.NoError(t, err)
		assert.Equal(t, "secret-token", token)
	})

	t.Run("credential session sends Basic user@org", func(t *testing.T) {
		t.Parallel()

		var (
			user     string
			password string
			ok       bool
		)

		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			user, password, ok = r.BasicAuth()
		}))
		defer server.Close()

		client := http.NewClient(server.URL, auth.NewSession("alice", "acme", "wonderland"))

		_, err := client.Get(context.Background(), "/sessions")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "alice@acme", user)
		assert.Equal(t, "wonderland", password)
	})

	t.Run("token takes precedence over credentials", func(t *testing.T) {
		t.Parallel()

		var (
			token    string
			basicSet bool
		)

		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			token = r.Header.Get("x-vcloud-authorization")
			_, _, basicSet = r.BasicAuth()
		}))
		defer server.Close()

		session := auth.NewSession("alice", "acme", "wonderland")
		session.SetToken("session-token")

		client := http.NewClient(server.URL, session)

		_, err := client.Get(context.Background(), "/org")
		require.NoError(t, err)
		assert.Equal(t, "session-token", token)
		assert.False(t, basicSet)
	})
}

func TestClient401Classification(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusUnauthorized)
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("stale"))

	_, err := client.Get(context.Background(), "/org")
	require.Error(t, err)
	assert.True(t, vcd.IsAuthentication(err))
}

func TestClient400WrongAcceptHeaderClassification(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusBadRequest)
		_, _ = w.Write([]byte(`<Error message="The request has invalid accept header: application/*+xml;version=9.9" majorErrorCode="400"/>`))
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("token"), http.WithAPIVersion("9.9"))

	_, err := client.Get(context.Background(), "/org")
	require.Error(t, err)
	assert.True(t, vcd.IsWrongAPIVersion(err))
	assert.Contains(t, err.Error(), "9.9")
}

func TestClientAbsoluteURLPassthrough(t *testing.T) {
	t.Parallel()

	var path string

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		path = r.URL.Path
	}))
	defer server.Close()

	// Transfer endpoints hand out absolute hrefs outside the API root.
	client := http.NewClient("https://unreachable.example.com", auth.NewTokenSession("token"))

	_, err := client.Get(context.Background(), server.URL+"/transfer/guid/descriptor.ovf")
	require.NoError(t, err)
	assert.Equal(t, "/transfer/guid/descriptor.ovf", path)
}

func TestClientUploadChunkSetsContentRange(t *testing.T) {
	t.Parallel()

	var contentRange string

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		contentRange = r.Header.Get("Content-Range")
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("token"))

	_, err := client.UploadChunk(context.Background(), "/transfer/guid/disk0.vmdk", []byte("data"), 0, 4, 100)
	require.NoError(t, err)
	assert.Equal(t, "bytes 0-4/100", contentRange)
}

func TestClientUploadChunkOutlivesRequestTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	// A request client too impatient for the stalled server.
	client := http.NewClient(server.URL, auth.NewTokenSession("token"),
		http.WithHTTPClient(&nethttp.Client{Timeout: 5 * time.Millisecond}))

	_, err := client.Get(context.Background(), "/org")
	require.Error(t, err)

	// Chunk PUTs run over their own transport and are not cut off by the
	// request timeout.
	_, err = client.UploadChunk(context.Background(), "/transfer/guid/disk0.vmdk", []byte("data"), 0, 4, 100)
	require.NoError(t, err)
}

func TestClientReturnsResponseAlongsideError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Location", "/api/task/abc")
		w.WriteHeader(nethttp.StatusInternalServerError)
		_, _ = w.Write([]byte(`<Error message="boom" majorErrorCode="500"/>`))
	}))
	defer server.Close()

	client := http.NewClient(server.URL, auth.NewTokenSession("token"))

	resp, err := client.Get(context.Background(), "/org")
	require.Error(t, err)
	assert.True(t, vcd.IsServerError(err))
	require.NotNil(t, resp)
	assert.Equal(t, "/api/task/abc", resp.Location())
}
