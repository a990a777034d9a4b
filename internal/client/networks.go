package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// Static errors for err113 compliance.
var (
	ErrNetworkNotFound = errors.New("network not found")
)

// NetworksClient implements vcd.NetworksClient.
type NetworksClient struct {
	httpClient *http.Client
	orgs       vcd.OrganizationsClient
}

// NewNetworksClient creates a new networks client.
func NewNetworksClient(httpClient *http.Client, orgs vcd.OrganizationsClient) *NetworksClient {
	return &NetworksClient{httpClient: httpClient, orgs: orgs}
}

// orgNetworkDoc maps the slice of an OrgVdcNetwork document the condensed
// view reads.
type orgNetworkDoc struct {
	Name        string `xml:"name,attr"`
	Description string `xml:"Description"`
	IPScope     struct {
		Gateway string `xml:"Gateway"`
		Netmask string `xml:"Netmask"`
		IPRange struct {
			StartAddress string `xml:"StartAddress"`
			EndAddress   string `xml:"EndAddress"`
		} `xml:"IpRanges>IpRange"`
	} `xml:"Configuration>IpScopes>IpScope"`
	FenceMode string `xml:"Configuration>FenceMode"`
}

// Get implements vcd.NetworksClient.Get.
func (c *NetworksClient) Get(ctx context.Context, networkID string) (*vcd.OrgNetwork, error) {
	resp, err := c.httpClient.Get(ctx, "/network/"+networkID)
	if err != nil {
		return nil, fmt.Errorf("getting network: %w", err)
	}

	var doc orgNetworkDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing network: %w", err)
	}

	return &vcd.OrgNetwork{
		ID:           networkID,
		Name:         doc.Name,
		Description:  doc.Description,
		Gateway:      doc.IPScope.Gateway,
		Netmask:      doc.IPScope.Netmask,
		FenceMode:    doc.FenceMode,
		StartAddress: doc.IPScope.IPRange.StartAddress,
		EndAddress:   doc.IPScope.IPRange.EndAddress,
	}, nil
}

// GetIDByName implements vcd.NetworksClient.GetIDByName. The network is
// resolved through the organization's orgNetwork links, case-insensitively.
func (c *NetworksClient) GetIDByName(ctx context.Context, orgName, networkName string) (string, error) {
	org, err := c.orgs.GetByName(ctx, orgName)
	if err != nil {
		return "", err
	}

	for name, id := range org.LinksByType(vcd.MimeOrgNetwork) {
		if strings.EqualFold(name, networkName) {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNetworkNotFound, networkName)
}
