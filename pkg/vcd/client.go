package vcd

import (
	"context"
	"time"
)

// SessionsClient manages the authenticated session lifecycle.
type SessionsClient interface {
	// Login exchanges the configured credentials for a session token via
	// POST /sessions. The token replaces Basic credentials on every
	// subsequent request.
	Login(ctx context.Context) (*Session, error)

	// Logout destroys the server-side session. The local token is cleared
	// unconditionally, even when the HTTP call fails.
	Logout(ctx context.Context) error

	// Current returns the current session state.
	Current() *Session
}

// Session is the client-side view of an authenticated session.
type Session struct {
	User             string
	Org              string
	Token            string
	ExtensibilityURL string
}

// OrganizationsClient accesses organizations and their task lists.
type OrganizationsClient interface {
	// List returns visible organizations as name→ID pairs.
	List(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, orgID string) (*Org, error)
	GetByName(ctx context.Context, name string) (*Org, error)
	GetIDByName(ctx context.Context, name string) (string, error)
}

// TasksClient fetches, polls and cancels asynchronous tasks.
type TasksClient interface {
	Get(ctx context.Context, taskID string) (*Task, error)

	// Wait polls the task with a fixed delay until it leaves the running
	// state, returning the final snapshot. When the task ends in the error
	// state the returned error wraps ErrTaskFailed and the snapshot's
	// ErrorMessage carries the server detail. By default polling is
	// unbounded; Config.TaskPollTimeout caps it.
	Wait(ctx context.Context, taskID string) (*Task, error)

	// Cancel marks the task for cancellation. Fire and forget: success
	// means the HTTP call succeeded.
	Cancel(ctx context.Context, taskID string) error

	// List fetches the tasks of an organization's tasks list.
	List(ctx context.Context, tasksListID string) ([]Task, error)
}

// CatalogsClient accesses catalogs and catalog items.
type CatalogsClient interface {
	Get(ctx context.Context, catalogID string) (*Catalog, error)
	GetIDByName(ctx context.Context, orgName, catalogName string) (string, error)
	GetByName(ctx context.Context, orgName, catalogName string) (*Catalog, error)
	GetItem(ctx context.Context, itemID string) (*CatalogItem, error)
	GetItemByName(ctx context.Context, catalogID, itemName string) (*CatalogItem, error)
}

// VDCsClient accesses virtual data centers.
type VDCsClient interface {
	Get(ctx context.Context, vdcID string) (*VDC, error)
	GetIDByName(ctx context.Context, orgName, vdcName string) (string, error)
	GetByName(ctx context.Context, orgName, vdcName string) (*VDC, error)
}

// ComposeNetworkRequest describes the vApp network built during compose.
type ComposeNetworkRequest struct {
	Name            string
	Gateway         string
	Netmask         string
	DNS1            string
	DNS2            string
	DNSSuffix       string
	StartAddress    string
	EndAddress      string
	ParentNetworkID string
	FenceMode       string
	IsInherited     bool
	EnableFirewall  bool
	AllocationMode  string
}

// PortForwardingRequest carries the NAT rules applied to a vApp network.
type PortForwardingRequest struct {
	ParentNetworkID string
	FenceMode       string
	PolicyType      string
	Rules           []PortForwardingRule
}

// PortForwardingRule forwards one external port to a VM NIC.
type PortForwardingRule struct {
	ExternalPort      int
	InternalPort      int
	VMScopedLocalID   string
	VMNicID           int
	Protocol          string
}

// VAppNetworkRequest reconfigures an existing vApp network.
type VAppNetworkRequest struct {
	FenceMode         string
	RetainNetInfo     bool
	ParentNetworkHref string
}

// NatRuleInfo is one port-forwarding rule read back from a vApp network.
type NatRuleInfo struct {
	ID             string
	ExternalIP     string
	ExternalPort   string
	VAppScopedVMID string
	VMNicID        string
	InternalPort   string
	Protocol       string
}

// VAppsClient manages vApp lifecycle. Mutating calls return the spawned
// task identifier.
type VAppsClient interface {
	Get(ctx context.Context, vappID string) (*VApp, error)
	Delete(ctx context.Context, vappID string) (string, error)
	PowerOn(ctx context.Context, vappID string) (string, error)
	PowerOff(ctx context.Context, vappID string) (string, error)

	// PowerAction invokes a raw power action verb on the vApp
	// (e.g. "suspend", "reboot", "reset", "shutdown").
	PowerAction(ctx context.Context, vappID, action string) (string, error)

	// ForceCustomization redeploys the vApp with guest customization
	// forced on.
	ForceCustomization(ctx context.Context, vappID string) (string, error)

	// CreateSnapshot takes a new snapshot, overwriting any existing one.
	CreateSnapshot(ctx context.Context, vappID, description string) (string, error)

	// RevertSnapshot reverts the vApp to its current snapshot.
	RevertSnapshot(ctx context.Context, vappID string) (string, error)

	CreateFromTemplate(ctx context.Context, vdcID, name, description, templateID string, powerOn bool) (*VAppCreation, error)
	Compose(ctx context.Context, vdcID, name, description string, vms map[string]string, network *ComposeNetworkRequest) (*VAppCreation, error)
	SetPortForwardingRules(ctx context.Context, vappID, networkName string, req *PortForwardingRequest) (string, error)
	GetPortForwardingRules(ctx context.Context, vappID string) (map[string]NatRuleInfo, error)
	SetNetworkConfig(ctx context.Context, vappID, networkName string, req *VAppNetworkRequest) (string, error)
	GetEdgePublicIP(ctx context.Context, vappID string) (string, error)
}

// VMNetworkRequest reconfigures a VM network connection.
type VMNetworkRequest struct {
	PrimaryIndex   int
	NetworkIndex   int
	IP             string
	IsConnected    bool
	AllocationMode string
}

// GuestCustomizationRequest reconfigures VM guest customization.
type GuestCustomizationRequest struct {
	Enabled              string
	AdminPasswordEnabled string
	AdminPassword        string
}

// VMsClient manages individual virtual machines.
type VMsClient interface {
	Get(ctx context.Context, vmID string) (*VM, error)
	SetNetworkConfig(ctx context.Context, vmID, networkName string, req *VMNetworkRequest) (string, error)
	SetGuestCustomization(ctx context.Context, vmID, computerName string, req *GuestCustomizationRequest) (string, error)
}

// NetworksClient accesses organization networks.
type NetworksClient interface {
	Get(ctx context.Context, networkID string) (*OrgNetwork, error)
	GetIDByName(ctx context.Context, orgName, networkName string) (string, error)
}

// DisksClient manages independent disks.
type DisksClient interface {
	Create(ctx context.Context, vdcID, name string, sizeBytes int64, description string) (*DiskCreation, error)
	Get(ctx context.Context, diskID string) (*Disk, error)
	GetByName(ctx context.Context, orgName, vdcName, diskName string) (*Disk, error)
	Delete(ctx context.Context, diskID string) (string, error)
	Attach(ctx context.Context, diskID, vmID string) (string, error)
	Detach(ctx context.Context, diskID, vmID string) (string, error)
}

// ProgressFunc receives upload progress as (bytesTransferred, totalBytes).
type ProgressFunc func(transferred, total int64)

// UploadOptions tunes the chunked uploader. Zero values fall back to the
// defaults (10 MiB chunks, 5s retry delay, unbounded retries).
type UploadOptions struct {
	// ChunkSize is the number of bytes per Content-Range PUT.
	ChunkSize int64

	// RetryDelay is the wait applied before retrying a failed chunk.
	RetryDelay time.Duration

	// MaxChunkRetries caps retries per chunk; 0 retries the same chunk
	// indefinitely.
	MaxChunkRetries int

	// SendManifest controls whether an OVF upload includes the .mf file.
	// Defaults to true for OVF uploads.
	SendManifest *bool

	// Progress, when set, receives bytesTransferred updates queried from
	// the transfer progress endpoint after each chunk.
	Progress ProgressFunc
}

// MediaClient uploads ISO media images.
type MediaClient interface {
	// Upload creates a media entity in the vDC, streams the file to the
	// transfer endpoint in chunks, and registers the result in the catalog.
	// A dangling task is canceled when an error escapes mid-upload.
	Upload(ctx context.Context, vdcID, name, description, localPath, catalogID string, opts *UploadOptions) (*MediaItem, error)
}

// TemplatesClient accesses vApp templates and uploads OVF packages.
type TemplatesClient interface {
	Get(ctx context.Context, templateID string) (*TransferDocument, error)

	// UploadOVF uploads descriptor, optional manifest and the referenced
	// disk files of an OVF package, then registers the template in the
	// catalog. A dangling task is canceled when an error escapes.
	UploadOVF(ctx context.Context, vdcID, name, description, ovfPath, catalogID string, opts *UploadOptions) error
}

// AdminClient accesses the admin extension (vSphere server references).
type AdminClient interface {
	VIMServers(ctx context.Context) (map[string]string, error)
	VIMHosts(ctx context.Context, vimServerID string) (map[string]string, error)
}

// Client is the full vCloud Director API client.
type Client interface {
	SessionsClient

	Organizations() OrganizationsClient
	Tasks() TasksClient
	Catalogs() CatalogsClient
	VDCs() VDCsClient
	VApps() VAppsClient
	VMs() VMsClient
	Networks() NetworksClient
	Disks() DisksClient
	Media() MediaClient
	Templates() TemplatesClient
	Admin() AdminClient

	// GetExtensibility discovers the API extensibility endpoints.
	GetExtensibility(ctx context.Context) (*Extensibility, error)

	// UploadFile streams a local file to a transfer endpoint in
	// Content-Range chunks. progressPath names the entity document queried
	// for bytesTransferred reporting.
	UploadFile(ctx context.Context, uploadPath, localPath, progressPath string, opts *UploadOptions) error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a vcd.Client.
//
// # Authentication
//
// Before login, requests carry HTTP Basic credentials built from
// "Username@Org" and Password. Login stores the session token returned in
// the x-vcloud-authorization header; from then on the token is sent instead
// of Basic credentials until Logout clears it. A pre-existing Token may be
// supplied to skip login.
//
// # Polling and retries
//
// TaskPollInterval controls the fixed delay between task polls (default 1s).
// TaskPollTimeout of zero preserves the reference wait-forever behavior;
// context cancellation is always honored. RetryMax enables transport-level
// retries for 5xx/429 responses; the default of zero issues exactly one
// attempt per request.
type Config struct {
	// Host is the base URL of the vCloud Director endpoint
	// (e.g. "https://vcloud.example.com"). The API root is Host + "/api".
	Host string

	// Username, Password and Org form the Basic bootstrap credentials.
	Username string
	Password string
	Org      string

	// APIVersion is negotiated via the Accept header. Defaults to "5.1".
	APIVersion string

	// Token is an existing session token, used instead of logging in.
	Token string

	// TaskPollInterval between task status fetches. Defaults to 1s.
	TaskPollInterval time.Duration

	// TaskPollTimeout caps task polling; zero means unbounded.
	TaskPollTimeout time.Duration

	// RetryMax enables transport retries when > 0.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables verbose HTTP request/response logging when a Logger
	// is provided.
	Debug bool

	// Logger is the optional structured logger used by the HTTP layer.
	Logger Logger

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Cache configures the optional lookup cache used by name→ID
	// resolution. Nil disables caching.
	Cache *CacheConfig
}
