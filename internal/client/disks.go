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
	ErrDiskNotFound = errors.New("disk not found")
)

// DisksClient implements vcd.DisksClient.
type DisksClient struct {
	httpClient *http.Client
	vdcs       vcd.VDCsClient
}

// NewDisksClient creates a new independent disks client.
func NewDisksClient(httpClient *http.Client, vdcs vcd.VDCsClient) *DisksClient {
	return &DisksClient{httpClient: httpClient, vdcs: vdcs}
}

// diskDoc maps the slice of a Disk document the condensed view reads.
type diskDoc struct {
	Name           string `xml:"name,attr"`
	Size           int64  `xml:"size,attr"`
	Href           string `xml:"href,attr"`
	Description    string `xml:"Description"`
	StorageProfile struct {
		Name string `xml:"name,attr"`
	} `xml:"StorageProfile"`
	Owner struct {
		User struct {
			Name string `xml:"name,attr"`
		} `xml:"User"`
	} `xml:"Owner"`
	Tasks []vcd.Task `xml:"Tasks>Task"`
}

// Create implements vcd.DisksClient.Create. The response carries both the
// new disk's href and the creation task.
func (c *DisksClient) Create(ctx context.Context, vdcID, name string, sizeBytes int64, description string) (*vcd.DiskCreation, error) {
	params := &vcd.DiskCreateParams{
		Xmlns: vcd.NsVCloud,
		Disk: vcd.DiskParam{
			Name:        name,
			Size:        sizeBytes,
			Description: description,
		},
	}

	body, err := xml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding disk create params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vdc/"+vdcID+"/disk", body, vcd.MimeDiskCreateParams)
	if err != nil {
		return nil, fmt.Errorf("creating disk: %w", err)
	}

	var doc diskDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing disk creation response: %w", err)
	}

	return &vcd.DiskCreation{
		DiskID: vcd.LastPathSegment(doc.Href),
		TaskID: taskIDByOperation(doc.Tasks, "vdcCreateDisk"),
	}, nil
}

// Get implements vcd.DisksClient.Get.
func (c *DisksClient) Get(ctx context.Context, diskID string) (*vcd.Disk, error) {
	resp, err := c.httpClient.Get(ctx, "/disk/"+diskID)
	if err != nil {
		return nil, fmt.Errorf("getting disk: %w", err)
	}

	var doc diskDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing disk: %w", err)
	}

	return &vcd.Disk{
		ID:             diskID,
		Name:           doc.Name,
		Size:           doc.Size,
		Description:    doc.Description,
		StorageProfile: doc.StorageProfile.Name,
		Owner:          doc.Owner.User.Name,
	}, nil
}

// GetByName implements vcd.DisksClient.GetByName. The disk is resolved
// through the vDC's resource entities, case-insensitively.
func (c *DisksClient) GetByName(ctx context.Context, orgName, vdcName, diskName string) (*vcd.Disk, error) {
	vdc, err := c.vdcs.GetByName(ctx, orgName, vdcName)
	if err != nil {
		return nil, err
	}

	for name, id := range vdc.Disks() {
		if strings.EqualFold(name, diskName) {
			return c.Get(ctx, id)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrDiskNotFound, diskName)
}

// Delete implements vcd.DisksClient.Delete. The response body is the
// removal task itself.
func (c *DisksClient) Delete(ctx context.Context, diskID string) (string, error) {
	resp, err := c.httpClient.Delete(ctx, "/disk/"+diskID)
	if err != nil {
		return "", fmt.Errorf("deleting disk: %w", err)
	}

	var task vcd.Task

	err = xml.Unmarshal(resp.Body, &task)
	if err != nil {
		return "", fmt.Errorf("parsing disk removal task: %w", err)
	}

	return task.ID(), nil
}

// Attach implements vcd.DisksClient.Attach.
func (c *DisksClient) Attach(ctx context.Context, diskID, vmID string) (string, error) {
	return c.attachAction(ctx, diskID, vmID, "attach")
}

// Detach implements vcd.DisksClient.Detach.
func (c *DisksClient) Detach(ctx context.Context, diskID, vmID string) (string, error) {
	return c.attachAction(ctx, diskID, vmID, "detach")
}

func (c *DisksClient) attachAction(ctx context.Context, diskID, vmID, action string) (string, error) {
	params := &vcd.DiskAttachOrDetachParams{
		Xmlns: vcd.NsVCloud,
		Disk: vcd.SourceRef{
			Href: c.httpClient.APIURL() + "/disk/" + diskID,
		},
	}

	body, err := xml.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding disk %s params: %w", action, err)
	}

	resp, err := c.httpClient.Post(ctx, "/vApp/vm-"+vmID+"/disk/action/"+action, body, vcd.MimeDiskAttachDetach)
	if err != nil {
		return "", fmt.Errorf("%sing disk: %w", action, err)
	}

	var task vcd.Task

	err = xml.Unmarshal(resp.Body, &task)
	if err != nil {
		return "", fmt.Errorf("parsing disk %s task: %w", action, err)
	}

	return task.ID(), nil
}
