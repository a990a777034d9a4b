package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// MediaClient implements vcd.MediaClient.
type MediaClient struct {
	httpClient *http.Client
	tasks      vcd.TasksClient
	uploader   *uploader
}

// NewMediaClient creates a new media client.
func NewMediaClient(httpClient *http.Client, tasks vcd.TasksClient, uploader *uploader) *MediaClient {
	return &MediaClient{httpClient: httpClient, tasks: tasks, uploader: uploader}
}

// Upload implements vcd.MediaClient.Upload. Media files are assumed to be
// ISO images. The entity is created first so the server hands out the
// transfer endpoint, then the file is streamed and the result registered
// in the catalog.
func (c *MediaClient) Upload(ctx context.Context, vdcID, name, description, localPath, catalogID string, opts *vcd.UploadOptions) (*vcd.MediaItem, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", vcd.ErrFileNotFound, localPath)
		}

		return nil, fmt.Errorf("stating media file: %w", err)
	}

	fileName := filepath.Base(localPath)
	if name == "" {
		name = strings.TrimSuffix(fileName, ".iso")
	}

	params := &vcd.MediaParams{
		Xmlns:       vcd.NsVCloud,
		XmlnsOVF:    vcd.NsOVF,
		Size:        info.Size(),
		ImageType:   "iso",
		Name:        name,
		Description: description,
	}

	body, err := xml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding media params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vdc/"+vdcID+"/media", body, vcd.MimeMedia)
	if err != nil {
		return nil, fmt.Errorf("creating media entity: %w", err)
	}

	var doc vcd.TransferDocument

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing media creation response: %w", err)
	}

	mediaID := vcd.LastPathSegment(doc.Href)
	mediaPath := "/media/" + mediaID

	uploadLink, ok := firstUploadLink(&doc)
	if !ok {
		return nil, fmt.Errorf("%w: media %s", vcd.ErrMissingUploadLink, mediaID)
	}

	item, err := c.finishUpload(ctx, uploadLink.Href, localPath, mediaPath, name, description, catalogID, opts)
	if err != nil {
		// Leave no task hanging on the half-created entity.
		cancelEntityTasks(ctx, c.httpClient, c.tasks, c.uploader.logger, mediaPath)

		return nil, err
	}

	return item, nil
}

func (c *MediaClient) finishUpload(ctx context.Context, uploadHref, localPath, mediaPath, name, description, catalogID string, opts *vcd.UploadOptions) (*vcd.MediaItem, error) {
	err := c.uploader.UploadFile(ctx, uploadHref, localPath, mediaPath, opts)
	if err != nil {
		return nil, err
	}

	resp, err := registerCatalogItem(ctx, c.httpClient, catalogID, name, description, c.httpClient.APIURL()+mediaPath)
	if err != nil {
		return nil, err
	}

	var itemDoc struct {
		Entity vcd.Reference `xml:"Entity"`
	}

	err = xml.Unmarshal(resp.Body, &itemDoc)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog item response: %w", err)
	}

	return &vcd.MediaItem{
		ID:   itemDoc.Entity.ID(),
		Name: itemDoc.Entity.Name,
	}, nil
}

// firstUploadLink returns the first upload:default link of the document's
// pending files.
func firstUploadLink(doc *vcd.TransferDocument) (vcd.Link, bool) {
	for _, file := range doc.PendingUploads() {
		if link, ok := file.UploadLink(); ok {
			return link, true
		}
	}

	return vcd.Link{}, false
}

// registerCatalogItem adds an uploaded entity to a catalog.
func registerCatalogItem(ctx context.Context, httpClient *http.Client, catalogID, name, description, entityHref string) (*http.Response, error) {
	params := &vcd.CatalogItemParams{
		Xmlns:       vcd.NsVCloud,
		Type:        vcd.MimeCatalogItem,
		Name:        name,
		Description: description,
		Entity:      vcd.SourceRef{Href: entityHref},
	}

	body, err := xml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog item params: %w", err)
	}

	resp, err := httpClient.Post(ctx, "/catalog/"+catalogID+"/catalogItems", body, vcd.MimeCatalogItem)
	if err != nil {
		return nil, fmt.Errorf("registering catalog item: %w", err)
	}

	return resp, nil
}

// cancelEntityTasks fetches the entity document and cancels every task
// still running against it. Tasks already in the error state are only
// logged; cancellation failures are logged and swallowed since this runs
// on an error path.
func cancelEntityTasks(ctx context.Context, httpClient *http.Client, tasks vcd.TasksClient, logger vcd.Logger, entityPath string) {
	resp, err := httpClient.Get(ctx, entityPath)
	if err != nil {
		return
	}

	var doc vcd.TransferDocument

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return
	}

	for i := range doc.Tasks {
		task := &doc.Tasks[i]

		if task.Status == vcd.TaskStatusError {
			if logger != nil {
				logger.Error("upload task failed", map[string]interface{}{
					"task":  task.ID(),
					"error": task.ErrorMessage(),
				})
			}

			continue
		}

		if logger != nil {
			logger.Warn("aborting dangling task", map[string]interface{}{
				"task": task.ID(),
			})
		}

		_ = tasks.Cancel(ctx, task.ID())
	}
}
