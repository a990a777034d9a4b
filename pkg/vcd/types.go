package vcd

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Media types used by the vCloud API. Request payloads are sent with the
// vendor-specific content type of the element they carry.
const (
	MimeError                 = "application/vnd.vmware.vcloud.error+xml"
	MimeOrgList               = "application/vnd.vmware.vcloud.orgList+xml"
	MimeOrg                   = "application/vnd.vmware.vcloud.org+xml"
	MimeCatalog               = "application/vnd.vmware.vcloud.catalog+xml"
	MimeCatalogItem           = "application/vnd.vmware.vcloud.catalogItem+xml"
	MimeVDC                   = "application/vnd.vmware.vcloud.vdc+xml"
	MimeVApp                  = "application/vnd.vmware.vcloud.vApp+xml"
	MimeVAppTemplate          = "application/vnd.vmware.vcloud.vAppTemplate+xml"
	MimeOrgNetwork            = "application/vnd.vmware.vcloud.orgNetwork+xml"
	MimeNetwork               = "application/vnd.vmware.vcloud.network+xml"
	MimeTasksList             = "application/vnd.vmware.vcloud.tasksList+xml"
	MimeResourceEntity        = "application/vnd.vmware.vcloud.vApp+xml"
	MimeUndeployVAppParams    = "application/vnd.vmware.vcloud.undeployVAppParams+xml"
	MimeCreateSnapshotParams  = "application/vnd.vmware.vcloud.createSnapshotParams+xml"
	MimeDeployVAppParams      = "application/vnd.vmware.vcloud.deployVAppParams+xml"
	MimeInstantiateVAppParams = "application/vnd.vmware.vcloud.instantiateVAppTemplateParams+xml"
	MimeComposeVAppParams     = "application/vnd.vmware.vcloud.composeVAppParams+xml"
	MimeNetworkConfigSection  = "application/vnd.vmware.vcloud.networkConfigSection+xml"
	MimeNetworkConnection     = "application/vnd.vmware.vcloud.networkConnectionSection+xml"
	MimeGuestCustomization    = "application/vnd.vmware.vcloud.guestCustomizationSection+xml"
	MimeUploadVAppTemplate    = "application/vnd.vmware.vcloud.uploadVAppTemplateParams+xml"
	MimeMedia                 = "application/vnd.vmware.vcloud.media+xml"
	MimeDisk                  = "application/vnd.vmware.vcloud.disk+xml"
	MimeDiskCreateParams      = "application/vnd.vmware.vcloud.diskCreateParams+xml"
	MimeDiskAttachDetach      = "application/vnd.vmware.vcloud.diskAttachOrDetachParams+xml"
	MimeVimServerReference    = "application/vnd.vmware.admin.vmwvirtualcenter+xml"
	MimeHostReference         = "application/vnd.vmware.admin.host+xml"
)

// XML namespaces used when building request payloads.
const (
	NsVCloud = "http://www.vmware.com/vcloud/v1.5"
	NsOVF    = "http://schemas.dmtf.org/ovf/envelope/1"
	NsXSI    = "http://www.w3.org/2001/XMLSchema-instance"
)

// vApp status codes as reported by the server, converted into a readable
// description by VAppStatusString.
const (
	vappStatusSuspended = 0
	vappStatusPaused    = 3
	vappStatusRunning   = 4
	vappStatusStopped   = 8
	vappStatusMixed     = 10
)

// VAppStatusString converts a numeric vApp/VM status code into a
// human-readable description. Unknown codes are passed through annotated.
func VAppStatusString(code int) string {
	switch code {
	case vappStatusSuspended:
		return "suspended"
	case vappStatusPaused:
		return "paused"
	case vappStatusRunning:
		return "running"
	case vappStatusStopped:
		return "stopped"
	case vappStatusMixed:
		return "mixed"
	default:
		return fmt.Sprintf("unknown (%d)", code)
	}
}

// TaskStatusRunning is the only non-terminal task status; every other
// status value reported by the server is terminal and passed through
// verbatim.
const (
	TaskStatusRunning = "running"
	TaskStatusSuccess = "success"
	TaskStatusError   = "error"
)

// Link is a hypermedia reference embedded in most vCloud documents.
type Link struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
	Name string `xml:"name,attr"`
}

// Reference points at another vCloud entity by href.
type Reference struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

// ID extracts the trailing identifier from the reference href.
func (r Reference) ID() string {
	return LastPathSegment(r.Href)
}

// LastPathSegment returns the final path segment of an href or Location
// header, which is how the API communicates task and entity identifiers.
func LastPathSegment(href string) string {
	trimmed := strings.TrimSuffix(href, "/")

	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}

	return trimmed[idx+1:]
}

// ErrorBody is the minimal error document shape the classifier consumes:
// an Error element with message and majorErrorCode attributes.
type ErrorBody struct {
	XMLName        xml.Name `xml:"Error"`
	Message        string   `xml:"message,attr"`
	MajorErrorCode string   `xml:"majorErrorCode,attr"`
	MinorErrorCode string   `xml:"minorErrorCode,attr"`
}

// Task is a server-tracked asynchronous operation. Times are passed through
// as the server reports them.
type Task struct {
	XMLName         xml.Name   `xml:"Task"`
	Href            string     `xml:"href,attr"`
	Status          string     `xml:"status,attr"`
	Operation       string     `xml:"operationName,attr"`
	StartTime       string     `xml:"startTime,attr"`
	EndTime         string     `xml:"endTime,attr"`
	CancelRequested bool       `xml:"cancelRequested,attr"`
	Error           *ErrorBody `xml:"Error"`
}

// ID returns the task identifier extracted from its href.
func (t *Task) ID() string {
	return LastPathSegment(t.Href)
}

// Running reports whether the task has not yet reached a terminal state.
func (t *Task) Running() bool {
	return t.Status == TaskStatusRunning
}

// ErrorMessage builds the display message for a task in the error state,
// empty otherwise.
func (t *Task) ErrorMessage() string {
	if t.Status != TaskStatusError || t.Error == nil {
		return ""
	}

	return fmt.Sprintf("error code %s - %s", t.Error.MajorErrorCode, t.Error.Message)
}

// TasksList is the document behind an organization's tasksList link.
type TasksList struct {
	XMLName xml.Name `xml:"TasksList"`
	Tasks   []Task   `xml:"Task"`
}

// OrgList enumerates the organizations visible to the session.
type OrgList struct {
	XMLName xml.Name    `xml:"OrgList"`
	Orgs    []Reference `xml:"Org"`
}

// Org is a single organization document. Its links point at catalogs, vDCs,
// networks and the org's tasks list.
type Org struct {
	XMLName  xml.Name `xml:"Org"`
	Name     string   `xml:"name,attr"`
	Href     string   `xml:"href,attr"`
	FullName string   `xml:"FullName"`
	Links    []Link   `xml:"Link"`
}

// LinksByType collects name→ID pairs for the org's links of the given
// media type.
func (o *Org) LinksByType(mediaType string) map[string]string {
	out := make(map[string]string)

	for _, link := range o.Links {
		if link.Type == mediaType {
			out[link.Name] = LastPathSegment(link.Href)
		}
	}

	return out
}

// Catalog is a catalog document with its items.
type Catalog struct {
	XMLName     xml.Name    `xml:"Catalog"`
	Name        string      `xml:"name,attr"`
	Description string      `xml:"Description"`
	Items       []Reference `xml:"CatalogItems>CatalogItem"`
}

// CatalogItem resolves a catalog item to the entities it wraps
// (vApp templates or media).
type CatalogItem struct {
	XMLName     xml.Name    `xml:"CatalogItem"`
	Name        string      `xml:"name,attr"`
	Description string      `xml:"Description"`
	Entities    []Reference `xml:"Entity"`
}

// VDC is a virtual data center document.
type VDC struct {
	XMLName     xml.Name    `xml:"Vdc"`
	Name        string      `xml:"name,attr"`
	Description string      `xml:"Description"`
	Entities    []Reference `xml:"ResourceEntities>ResourceEntity"`
	Networks    []Reference `xml:"AvailableNetworks>Network"`
}

// VApps collects the vDC's vApp entities as name→ID pairs.
func (v *VDC) VApps() map[string]string {
	out := make(map[string]string)

	for _, ent := range v.Entities {
		if ent.Type == MimeVApp {
			out[ent.Name] = strings.TrimPrefix(ent.ID(), "vapp-")
		}
	}

	return out
}

// Templates collects the vDC's vApp template entities as name→ID pairs.
func (v *VDC) Templates() map[string]string {
	out := make(map[string]string)

	for _, ent := range v.Entities {
		if ent.Type == MimeVAppTemplate {
			out[ent.Name] = strings.TrimPrefix(ent.ID(), "vappTemplate-")
		}
	}

	return out
}

// Disks collects the vDC's independent disk entities as name→ID pairs.
func (v *VDC) Disks() map[string]string {
	out := make(map[string]string)

	for _, ent := range v.Entities {
		if ent.Type == MimeDisk {
			out[ent.Name] = ent.ID()
		}
	}

	return out
}

// NetworkIDs collects the vDC's available networks as name→ID pairs.
func (v *VDC) NetworkIDs() map[string]string {
	out := make(map[string]string)

	for _, net := range v.Networks {
		out[net.Name] = net.ID()
	}

	return out
}

// VAppVM is a child VM summary inside a vApp document.
type VAppVM struct {
	ID                string
	Status            string
	Addresses         []string
	VAppScopedLocalID string
}

// VAppNetworkScope summarizes the scope of one vApp network.
type VAppNetworkScope struct {
	Gateway       string
	Netmask       string
	FenceMode     string
	ParentNetwork string
	RetainNetInfo string
}

// VApp is the condensed view of a vApp document.
type VApp struct {
	ID          string
	Name        string
	Description string
	Status      string
	IP          string
	Networks    map[string]VAppNetworkScope
	VMs         map[string]VAppVM
}

// VMNetwork describes one network connection of a VM.
type VMNetwork struct {
	Index          string
	IP             string
	ExternalIP     string
	IsConnected    string
	MACAddress     string
	AllocationMode string
}

// GuestCustomization is the VM guest customization section summary.
type GuestCustomization struct {
	Enabled               string
	AdminPasswordEnabled  string
	AdminPasswordAuto     string
	AdminPassword         string
	ResetPasswordRequired string
	ComputerName          string
}

// VM is the condensed view of a VM document.
type VM struct {
	ID                 string
	Name               string
	Status             string
	OSDescription      string
	Networks           map[string]VMNetwork
	GuestCustomization GuestCustomization
}

// OrgNetwork is the condensed view of an organization network document.
type OrgNetwork struct {
	ID           string
	Name         string
	Description  string
	Gateway      string
	Netmask      string
	FenceMode    string
	StartAddress string
	EndAddress   string
}

// Disk is an independent disk document summary.
type Disk struct {
	ID             string
	Name           string
	Size           int64
	Description    string
	StorageProfile string
	Owner          string
}

// DiskCreation is the result of creating an independent disk: the disk ID
// plus the creation task to wait on.
type DiskCreation struct {
	DiskID string
	TaskID string
}

// VAppCreation is the result of instantiating or composing a vApp.
type VAppCreation struct {
	VAppID string
	TaskID string
}

// MediaItem identifies an uploaded media entity registered in a catalog.
type MediaItem struct {
	ID   string
	Name string
}

// Extensibility lists the API extensibility endpoints discovered from
// the /extensibility document.
type Extensibility struct {
	ServiceURL        string
	APIDefinitionsURL string
	FilesURL          string
}

// UploadedFile is one entry of a transfer-progress Files listing.
type UploadedFile struct {
	Name             string `xml:"name,attr"`
	Size             int64  `xml:"size,attr"`
	BytesTransferred int64  `xml:"bytesTransferred,attr"`
	Links            []Link `xml:"Link"`
}

// UploadLink returns the upload:default link of the file entry, if any.
func (f *UploadedFile) UploadLink() (Link, bool) {
	for _, link := range f.Links {
		if link.Rel == "upload:default" {
			return link, true
		}
	}

	return Link{}, false
}

// TransferDocument is the portion of an entity document (vAppTemplate or
// Media) that tracks an in-flight upload: pending file transfers and the
// tasks spawned for the entity.
type TransferDocument struct {
	Href  string         `xml:"href,attr"`
	Files []UploadedFile `xml:"Files>File"`
	Tasks []Task         `xml:"Tasks>Task"`
}

// PendingUploads returns the file entries that still expose an
// upload:default link.
func (d *TransferDocument) PendingUploads() []UploadedFile {
	var pending []UploadedFile

	for _, file := range d.Files {
		if _, ok := file.UploadLink(); ok {
			pending = append(pending, file)
		}
	}

	return pending
}

// ErroredTask returns the first task in the error state, if any.
func (d *TransferDocument) ErroredTask() *Task {
	for i := range d.Tasks {
		if d.Tasks[i].Status == TaskStatusError {
			return &d.Tasks[i]
		}
	}

	return nil
}

// BytesTransferred reports the server-side progress for the named file.
func (d *TransferDocument) BytesTransferred(name string) (int64, bool) {
	for _, file := range d.Files {
		if file.Name == name {
			return file.BytesTransferred, true
		}
	}

	return 0, false
}
