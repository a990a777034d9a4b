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
	ErrCatalogNotFound     = errors.New("catalog not found")
	ErrCatalogItemNotFound = errors.New("catalog item not found")
)

// CatalogsClient implements vcd.CatalogsClient.
type CatalogsClient struct {
	httpClient *http.Client
	orgs       vcd.OrganizationsClient
	lookups    *lookupCache
}

// NewCatalogsClient creates a new catalogs client.
func NewCatalogsClient(httpClient *http.Client, orgs vcd.OrganizationsClient, lookups *lookupCache) *CatalogsClient {
	return &CatalogsClient{httpClient: httpClient, orgs: orgs, lookups: lookups}
}

// Get implements vcd.CatalogsClient.Get.
func (c *CatalogsClient) Get(ctx context.Context, catalogID string) (*vcd.Catalog, error) {
	resp, err := c.httpClient.Get(ctx, "/catalog/"+catalogID)
	if err != nil {
		return nil, fmt.Errorf("getting catalog: %w", err)
	}

	var catalog vcd.Catalog

	err = xml.Unmarshal(resp.Body, &catalog)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	return &catalog, nil
}

// GetIDByName implements vcd.CatalogsClient.GetIDByName.
func (c *CatalogsClient) GetIDByName(ctx context.Context, orgName, catalogName string) (string, error) {
	return c.lookups.GetID(ctx, vcd.CatalogCacheKey(orgName, catalogName), func(ctx context.Context) (string, error) {
		org, err := c.orgs.GetByName(ctx, orgName)
		if err != nil {
			return "", err
		}

		for name, id := range org.LinksByType(vcd.MimeCatalog) {
			if strings.EqualFold(name, catalogName) {
				return id, nil
			}
		}

		return "", fmt.Errorf("%w: %s", ErrCatalogNotFound, catalogName)
	})
}

// GetByName implements vcd.CatalogsClient.GetByName.
func (c *CatalogsClient) GetByName(ctx context.Context, orgName, catalogName string) (*vcd.Catalog, error) {
	catalogID, err := c.GetIDByName(ctx, orgName, catalogName)
	if err != nil {
		return nil, err
	}

	return c.Get(ctx, catalogID)
}

// GetItem implements vcd.CatalogsClient.GetItem.
func (c *CatalogsClient) GetItem(ctx context.Context, itemID string) (*vcd.CatalogItem, error) {
	resp, err := c.httpClient.Get(ctx, "/catalogItem/"+itemID)
	if err != nil {
		return nil, fmt.Errorf("getting catalog item: %w", err)
	}

	var item vcd.CatalogItem

	err = xml.Unmarshal(resp.Body, &item)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog item: %w", err)
	}

	return &item, nil
}

// GetItemByName implements vcd.CatalogsClient.GetItemByName. Catalog items
// are resolved by walking the catalog's item references.
func (c *CatalogsClient) GetItemByName(ctx context.Context, catalogID, itemName string) (*vcd.CatalogItem, error) {
	catalog, err := c.Get(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	for _, ref := range catalog.Items {
		if !strings.EqualFold(ref.Name, itemName) {
			continue
		}

		return c.GetItem(ctx, ref.ID())
	}

	return nil, fmt.Errorf("%w: %s", ErrCatalogItemNotFound, itemName)
}
