package client

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// AdminClient implements vcd.AdminClient against the admin extension.
type AdminClient struct {
	httpClient *http.Client
}

// NewAdminClient creates a new admin extension client.
func NewAdminClient(httpClient *http.Client) *AdminClient {
	return &AdminClient{httpClient: httpClient}
}

// referenceListDoc matches both VimServerReferences and HostReferences
// documents, which only differ in the reference element name.
type referenceListDoc struct {
	VimServers []vcd.Reference `xml:"VimServerReference"`
	Hosts      []vcd.Reference `xml:"HostReference"`
}

// VIMServers implements vcd.AdminClient.VIMServers, returning the attached
// vSphere servers as name→ID pairs.
func (c *AdminClient) VIMServers(ctx context.Context) (map[string]string, error) {
	resp, err := c.httpClient.Get(ctx, "/admin/extension/vimServerReferences")
	if err != nil {
		return nil, fmt.Errorf("listing vim servers: %w", err)
	}

	var doc referenceListDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing vim server references: %w", err)
	}

	return referencesByType(doc.VimServers, vcd.MimeVimServerReference), nil
}

// VIMHosts implements vcd.AdminClient.VIMHosts, returning the hosts
// attached to one vSphere server as name→ID pairs.
func (c *AdminClient) VIMHosts(ctx context.Context, vimServerID string) (map[string]string, error) {
	resp, err := c.httpClient.Get(ctx, "/admin/extension/vimServer/"+vimServerID+"/hostReferences")
	if err != nil {
		return nil, fmt.Errorf("listing vim hosts: %w", err)
	}

	var doc referenceListDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing host references: %w", err)
	}

	return referencesByType(doc.Hosts, vcd.MimeHostReference), nil
}

func referencesByType(refs []vcd.Reference, mediaType string) map[string]string {
	out := make(map[string]string)

	for _, ref := range refs {
		if ref.Type == mediaType {
			out[ref.Name] = ref.ID()
		}
	}

	return out
}
