package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// uploadSettlePollInterval is the delay between template document fetches
// while waiting for the server to process the OVF descriptor and expose
// the disk-file upload links.
const uploadSettlePollInterval = time.Second

// TemplatesClient implements vcd.TemplatesClient.
type TemplatesClient struct {
	httpClient *http.Client
	tasks      vcd.TasksClient
	uploader   *uploader
}

// NewTemplatesClient creates a new vApp templates client.
func NewTemplatesClient(httpClient *http.Client, tasks vcd.TasksClient, uploader *uploader) *TemplatesClient {
	return &TemplatesClient{httpClient: httpClient, tasks: tasks, uploader: uploader}
}

// Get implements vcd.TemplatesClient.Get.
func (c *TemplatesClient) Get(ctx context.Context, templateID string) (*vcd.TransferDocument, error) {
	resp, err := c.httpClient.Get(ctx, "/vAppTemplate/vappTemplate-"+templateID)
	if err != nil {
		return nil, fmt.Errorf("getting vApp template: %w", err)
	}

	var doc vcd.TransferDocument

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing vApp template: %w", err)
	}

	return &doc, nil
}

// UploadOVF implements vcd.TemplatesClient.UploadOVF. The descriptor goes
// up first; once the server has parsed it the referenced disk files gain
// their own upload links and are streamed one by one.
func (c *TemplatesClient) UploadOVF(ctx context.Context, vdcID, name, description, ovfPath, catalogID string, opts *vcd.UploadOptions) error {
	_, err := os.Stat(ovfPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", vcd.ErrFileNotFound, ovfPath)
		}

		return fmt.Errorf("stating OVF descriptor: %w", err)
	}

	sendManifest := true
	if opts != nil && opts.SendManifest != nil {
		sendManifest = *opts.SendManifest
	}

	params := &vcd.UploadVAppTemplateParams{
		Xmlns:            vcd.NsVCloud,
		XmlnsOVF:         vcd.NsOVF,
		ManifestRequired: fmt.Sprintf("%t", sendManifest),
		Name:             name,
		Description:      description,
	}

	body, err := xml.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding upload template params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vdc/"+vdcID+"/action/uploadVAppTemplate", body, vcd.MimeUploadVAppTemplate)
	if err != nil {
		return fmt.Errorf("creating vApp template: %w", err)
	}

	location := resp.Location()
	if location == "" {
		return fmt.Errorf("%w: uploadVAppTemplate", vcd.ErrMissingLocation)
	}

	templateID := strings.TrimPrefix(vcd.LastPathSegment(location), "vappTemplate-")
	templatePath := "/vAppTemplate/vappTemplate-" + templateID

	var doc vcd.TransferDocument

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return fmt.Errorf("parsing template creation response: %w", err)
	}

	descriptorLink, ok := firstUploadLink(&doc)
	if !ok {
		return fmt.Errorf("%w: template %s", vcd.ErrMissingUploadLink, templateID)
	}

	err = c.uploadPackage(ctx, descriptorLink.Href, ovfPath, templatePath, name, description, catalogID, sendManifest, opts)
	if err != nil {
		// Leave no task hanging on the half-created template.
		cancelEntityTasks(ctx, c.httpClient, c.tasks, c.uploader.logger, templatePath)

		return fmt.Errorf("%w: %w", vcd.ErrTemplateUploadFailed, err)
	}

	return nil
}

func (c *TemplatesClient) uploadPackage(ctx context.Context, descriptorHref, ovfPath, templatePath, name, description, catalogID string, sendManifest bool, opts *vcd.UploadOptions) error {
	transferBase := strings.TrimSuffix(descriptorHref, "/descriptor.ovf")
	ovfDir := filepath.Dir(ovfPath)
	ovfBase := strings.TrimSuffix(filepath.Base(ovfPath), ".ovf")

	err := c.uploader.UploadFile(ctx, descriptorHref, ovfPath, templatePath, opts)
	if err != nil {
		return err
	}

	if c.uploader.logger != nil {
		c.uploader.logger.Debug("OVF descriptor uploaded", map[string]interface{}{
			"template": templatePath,
		})
	}

	err = c.waitForDescriptorProcessing(ctx, templatePath)
	if err != nil {
		return err
	}

	if sendManifest {
		manifestPath := filepath.Join(ovfDir, ovfBase+".mf")

		err = c.uploader.UploadFile(ctx, transferBase+"/descriptor.mf", manifestPath, templatePath, opts)
		if err != nil {
			return err
		}
	}

	err = c.uploadDiskFiles(ctx, templatePath, ovfDir, opts)
	if err != nil {
		return err
	}

	_, err = registerCatalogItem(ctx, c.httpClient, catalogID, name, description, c.httpClient.APIURL()+templatePath)

	return err
}

// waitForDescriptorProcessing polls the template document until the server
// has parsed the descriptor and replaced its single upload link with the
// disk-file entries. A task in the error state aborts the wait.
func (c *TemplatesClient) waitForDescriptorProcessing(ctx context.Context, templatePath string) error {
	for {
		resp, err := c.httpClient.Get(ctx, templatePath)
		if err != nil {
			return fmt.Errorf("polling template: %w", err)
		}

		var doc vcd.TransferDocument

		err = xml.Unmarshal(resp.Body, &doc)
		if err != nil {
			return fmt.Errorf("parsing template: %w", err)
		}

		if task := doc.ErroredTask(); task != nil {
			return fmt.Errorf("descriptor processing failed: %s", task.ErrorMessage())
		}

		if len(doc.PendingUploads()) != 1 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uploadSettlePollInterval):
		}
	}
}

// uploadDiskFiles streams every referenced file the server has not yet
// received. Local files are resolved next to the descriptor.
func (c *TemplatesClient) uploadDiskFiles(ctx context.Context, templatePath, ovfDir string, opts *vcd.UploadOptions) error {
	resp, err := c.httpClient.Get(ctx, templatePath)
	if err != nil {
		return fmt.Errorf("listing template files: %w", err)
	}

	var doc vcd.TransferDocument

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return fmt.Errorf("parsing template files: %w", err)
	}

	for _, file := range doc.PendingUploads() {
		if file.BytesTransferred != 0 {
			continue
		}

		link, _ := file.UploadLink()

		err = c.uploader.UploadFile(ctx, link.Href, filepath.Join(ovfDir, file.Name), templatePath, opts)
		if err != nil {
			return err
		}
	}

	return nil
}
