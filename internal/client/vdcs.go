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
	ErrVDCNotFound = errors.New("vDC not found")
)

// VDCsClient implements vcd.VDCsClient.
type VDCsClient struct {
	httpClient *http.Client
	orgs       vcd.OrganizationsClient
	lookups    *lookupCache
}

// NewVDCsClient creates a new vDCs client.
func NewVDCsClient(httpClient *http.Client, orgs vcd.OrganizationsClient, lookups *lookupCache) *VDCsClient {
	return &VDCsClient{httpClient: httpClient, orgs: orgs, lookups: lookups}
}

// Get implements vcd.VDCsClient.Get.
func (c *VDCsClient) Get(ctx context.Context, vdcID string) (*vcd.VDC, error) {
	resp, err := c.httpClient.Get(ctx, "/vdc/"+vdcID)
	if err != nil {
		return nil, fmt.Errorf("getting vDC: %w", err)
	}

	var vdc vcd.VDC

	err = xml.Unmarshal(resp.Body, &vdc)
	if err != nil {
		return nil, fmt.Errorf("parsing vDC: %w", err)
	}

	return &vdc, nil
}

// GetIDByName implements vcd.VDCsClient.GetIDByName. The vDC is resolved
// through the organization's vdc links, case-insensitively.
func (c *VDCsClient) GetIDByName(ctx context.Context, orgName, vdcName string) (string, error) {
	return c.lookups.GetID(ctx, vcd.VDCCacheKey(orgName, vdcName), func(ctx context.Context) (string, error) {
		org, err := c.orgs.GetByName(ctx, orgName)
		if err != nil {
			return "", err
		}

		for name, id := range org.LinksByType(vcd.MimeVDC) {
			if strings.EqualFold(name, vdcName) {
				return id, nil
			}
		}

		return "", fmt.Errorf("%w: %s", ErrVDCNotFound, vdcName)
	})
}

// GetByName implements vcd.VDCsClient.GetByName.
func (c *VDCsClient) GetByName(ctx context.Context, orgName, vdcName string) (*vcd.VDC, error) {
	vdcID, err := c.GetIDByName(ctx, orgName, vdcName)
	if err != nil {
		return nil, err
	}

	return c.Get(ctx, vdcID)
}
