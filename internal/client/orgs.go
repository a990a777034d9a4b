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
	ErrOrgNotFound = errors.New("organization not found")
)

// OrganizationsClient implements vcd.OrganizationsClient.
type OrganizationsClient struct {
	httpClient *http.Client
	lookups    *lookupCache
}

// NewOrganizationsClient creates a new organizations client.
func NewOrganizationsClient(httpClient *http.Client, lookups *lookupCache) *OrganizationsClient {
	return &OrganizationsClient{httpClient: httpClient, lookups: lookups}
}

// List implements vcd.OrganizationsClient.List.
func (c *OrganizationsClient) List(ctx context.Context) (map[string]string, error) {
	resp, err := c.httpClient.Get(ctx, "/org")
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}

	var list vcd.OrgList

	err = xml.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing organization list: %w", err)
	}

	out := make(map[string]string, len(list.Orgs))
	for _, org := range list.Orgs {
		out[org.Name] = org.ID()
	}

	return out, nil
}

// Get implements vcd.OrganizationsClient.Get.
func (c *OrganizationsClient) Get(ctx context.Context, orgID string) (*vcd.Org, error) {
	resp, err := c.httpClient.Get(ctx, "/org/"+orgID)
	if err != nil {
		return nil, fmt.Errorf("getting organization: %w", err)
	}

	var org vcd.Org

	err = xml.Unmarshal(resp.Body, &org)
	if err != nil {
		return nil, fmt.Errorf("parsing organization: %w", err)
	}

	return &org, nil
}

// GetIDByName implements vcd.OrganizationsClient.GetIDByName. Name matching
// is case-insensitive; results are memoized in the lookup cache.
func (c *OrganizationsClient) GetIDByName(ctx context.Context, name string) (string, error) {
	return c.lookups.GetID(ctx, vcd.OrgCacheKey(name), func(ctx context.Context) (string, error) {
		orgs, err := c.List(ctx)
		if err != nil {
			return "", err
		}

		for orgName, orgID := range orgs {
			if strings.EqualFold(orgName, name) {
				return orgID, nil
			}
		}

		return "", fmt.Errorf("%w: %s", ErrOrgNotFound, name)
	})
}

// GetByName implements vcd.OrganizationsClient.GetByName.
func (c *OrganizationsClient) GetByName(ctx context.Context, name string) (*vcd.Org, error) {
	orgID, err := c.GetIDByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return c.Get(ctx, orgID)
}
