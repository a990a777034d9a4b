// Package client implements the vcd.Client interface on top of the request
// executor in internal/http.
package client

import (
	"context"
	"time"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/constants"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// Client implements the vcd.Client interface.
type Client struct {
	httpClient *http.Client
	session    *auth.Session
	config     *vcd.Config
	logger     vcd.Logger
	lookups    *lookupCache

	// Resource clients
	organizations vcd.OrganizationsClient
	tasks         vcd.TasksClient
	catalogs      vcd.CatalogsClient
	vdcs          vcd.VDCsClient
	vapps         vcd.VAppsClient
	vms           vcd.VMsClient
	networks      vcd.NetworksClient
	disks         vcd.DisksClient
	media         vcd.MediaClient
	templates     vcd.TemplatesClient
	admin         vcd.AdminClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *vcd.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.APIVersion != "" {
		httpOpts = append(httpOpts, http.WithAPIVersion(config.APIVersion))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a new vCloud Director API client from configuration.
func New(config *vcd.Config) (*Client, error) {
	if config == nil {
		return nil, vcd.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, vcd.ErrHostRequired
	}

	if config.Token == "" && (config.Username == "" || config.Password == "" || config.Org == "") {
		return nil, vcd.ErrCredentialsRequired
	}

	var session *auth.Session
	if config.Token != "" {
		session = auth.NewTokenSession(config.Token)
	} else {
		session = auth.NewSession(config.Username, config.Org, config.Password)
	}

	httpClient := http.NewClient(config.Host, session, createHTTPClientOptions(config)...)

	cache, err := vcd.NewCacheFromConfig(cacheConfigOrNone(config))
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient: httpClient,
		session:    session,
		config:     config,
		logger:     config.Logger,
		lookups:    newLookupCache(cache, constants.LookupCacheTTL),
	}

	client.initializeResourceClients()

	return client, nil
}

// cacheConfigOrNone disables caching when the config carries no cache
// section.
func cacheConfigOrNone(config *vcd.Config) *vcd.CacheConfig {
	if config.Cache == nil {
		return &vcd.CacheConfig{Type: vcd.CacheTypeNone}
	}

	return config.Cache
}

// taskPollInterval returns the configured poll interval or the default.
func (c *Client) taskPollInterval() time.Duration {
	if c.config.TaskPollInterval > 0 {
		return c.config.TaskPollInterval
	}

	return constants.DefaultTaskPollInterval
}

// Organizations implements vcd.Client.Organizations.
func (c *Client) Organizations() vcd.OrganizationsClient {
	return c.organizations
}

// Tasks implements vcd.Client.Tasks.
func (c *Client) Tasks() vcd.TasksClient {
	return c.tasks
}

// Catalogs implements vcd.Client.Catalogs.
func (c *Client) Catalogs() vcd.CatalogsClient {
	return c.catalogs
}

// VDCs implements vcd.Client.VDCs.
func (c *Client) VDCs() vcd.VDCsClient {
	return c.vdcs
}

// VApps implements vcd.Client.VApps.
func (c *Client) VApps() vcd.VAppsClient {
	return c.vapps
}

// VMs implements vcd.Client.VMs.
func (c *Client) VMs() vcd.VMsClient {
	return c.vms
}

// Networks implements vcd.Client.Networks.
func (c *Client) Networks() vcd.NetworksClient {
	return c.networks
}

// Disks implements vcd.Client.Disks.
func (c *Client) Disks() vcd.DisksClient {
	return c.disks
}

// Media implements vcd.Client.Media.
func (c *Client) Media() vcd.MediaClient {
	return c.media
}

// Templates implements vcd.Client.Templates.
func (c *Client) Templates() vcd.TemplatesClient {
	return c.templates
}

// Admin implements vcd.Client.Admin.
func (c *Client) Admin() vcd.AdminClient {
	return c.admin
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	tasks := NewTasksClient(c.httpClient, c.taskPollInterval(), c.config.TaskPollTimeout)
	orgs := NewOrganizationsClient(c.httpClient, c.lookups)
	vdcs := NewVDCsClient(c.httpClient, orgs, c.lookups)
	uploader := newUploader(c.httpClient, c.logger)

	c.tasks = tasks
	c.organizations = orgs
	c.vdcs = vdcs
	c.catalogs = NewCatalogsClient(c.httpClient, orgs, c.lookups)
	c.vapps = NewVAppsClient(c.httpClient)
	c.vms = NewVMsClient(c.httpClient)
	c.networks = NewNetworksClient(c.httpClient, orgs)
	c.disks = NewDisksClient(c.httpClient, vdcs)
	c.media = NewMediaClient(c.httpClient, tasks, uploader)
	c.templates = NewTemplatesClient(c.httpClient, tasks, uploader)
	c.admin = NewAdminClient(c.httpClient)
}

// UploadFile implements vcd.Client.UploadFile.
func (c *Client) UploadFile(ctx context.Context, uploadPath, localPath, progressPath string, opts *vcd.UploadOptions) error {
	uploader := newUploader(c.httpClient, c.logger)

	return uploader.UploadFile(ctx, uploadPath, localPath, progressPath, opts)
}
