// Package storage keeps segmentation documents in an Azure Blob container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/segmenter/pkg/lifecycle"
)

// MaxListCap is the service limit on blobs per List page.
const MaxListCap int32 = 5000

var (
	ErrNotFound          = errors.New("blob not found")
	ErrEmptyKey          = errors.New("storage key must not be empty")
	ErrInvalidKey        = errors.New("storage key contains invalid path segment")
	ErrInvalidMaxResults = errors.New("max_results must be a positive integer")
)

// MapHTTPStatus gives the response status for a storage error.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidMaxResults):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type BlobMeta struct {
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type"`
	ContentLength int64     `json:"content_length"`
	LastModified  time.Time `json:"last_modified"`
}

// BlobList is one page of a listing. NextMarker is empty on the last page.
type BlobList struct {
	Blobs      []BlobMeta `json:"blobs"`
	NextMarker string     `json:"next_marker,omitempty"`
}

// BlobResult streams blob content. Callers close Body.
type BlobResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// System stores blobs by key. Keys are slash separated and may not be
// empty or contain "..".
type System interface {
	// Start creates the container, if missing, once startup begins.
	Start(lc *lifecycle.Coordinator) error
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Download(ctx context.Context, key string) (*BlobResult, error)
	Find(ctx context.Context, key string) (*BlobMeta, error)
	List(ctx context.Context, prefix, marker string, maxResults int32) (*BlobList, error)
	Delete(ctx context.Context, key string) error
}

type container struct {
	client *azblob.Client
	name   string
	logger *slog.Logger
}

// New builds the client without contacting the service.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return newContainer(client, cfg.ContainerName, logger), nil
}

func newContainer(client *azblob.Client, name string, logger *slog.Logger) *container {
	return &container{
		client: client,
		name:   name,
		logger: logger.With("system", "storage", "container", name),
	}
}

// ParseMaxResults reads a max_results parameter, using fallback when it is
// absent and clamping to MaxListCap.
func ParseMaxResults(s string, fallback int32) (int32, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxResults, s)
	}
	return int32(min(n, int(MaxListCap))), nil
}

func (c *container) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		_, err := c.client.CreateContainer(lc.Context(), c.name, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			c.logger.Error("container init failed", "error", err)
			return
		}
		c.logger.Info("container ready")
	})
	return nil
}

func (c *container) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := c.client.UploadStream(ctx, c.name, key, r, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	return wrap(err, "upload", key)
}

func (c *container) Download(ctx context.Context, key string) (*BlobResult, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	resp, err := c.client.DownloadStream(ctx, c.name, key, nil)
	if err != nil {
		return nil, wrap(err, "download", key)
	}
	return &BlobResult{
		Body:          resp.Body,
		ContentType:   value(resp.ContentType),
		ContentLength: value(resp.ContentLength),
	}, nil
}

func (c *container) Find(ctx context.Context, key string) (*BlobMeta, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	props, err := c.client.ServiceClient().NewContainerClient(c.name).NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, wrap(err, "find", key)
	}
	return &BlobMeta{
		Key:           key,
		ContentType:   value(props.ContentType),
		ContentLength: value(props.ContentLength),
		LastModified:  value(props.LastModified),
	}, nil
}

// List reads a single page. Blobs is never nil.
func (c *container) List(ctx context.Context, prefix, marker string, maxResults int32) (*BlobList, error) {
	opts := &azblob.ListBlobsFlatOptions{MaxResults: &maxResults}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	if marker != "" {
		opts.Marker = &marker
	}

	out := &BlobList{Blobs: []BlobMeta{}}
	pager := c.client.NewListBlobsFlatPager(c.name, opts)
	if !pager.More() {
		return out, nil
	}

	page, err := pager.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	out.NextMarker = value(page.NextMarker)
	if page.Segment == nil {
		return out, nil
	}

	for _, item := range page.Segment.BlobItems {
		if item == nil || item.Name == nil {
			continue
		}
		meta := BlobMeta{Key: *item.Name}
		if p := item.Properties; p != nil {
			meta.ContentType = value(p.ContentType)
			meta.ContentLength = value(p.ContentLength)
			meta.LastModified = value(p.LastModified)
		}
		out.Blobs = append(out.Blobs, meta)
	}
	return out, nil
}

func (c *container) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := c.client.DeleteBlob(ctx, c.name, key, nil)
	return wrap(err, "delete", key)
}

func checkKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case strings.Contains(key, ".."):
		return ErrInvalidKey
	}
	return nil
}

// wrap maps a missing blob to ErrNotFound.
func wrap(err error, op, key string) error {
	switch {
	case err == nil:
		return nil
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return ErrNotFound
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

func value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
