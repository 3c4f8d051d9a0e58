package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"catalog/internal/apperr"
	"catalog/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MaxFilesPerRequest = 4

	maxConcurrentUploads = 4
)

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// Orchestrator uploads entity images to object storage and keeps the
// image-reference rows in step with them.
type Orchestrator struct {
	storage Storage
	images  ImageStore
	logger  *zap.SugaredLogger
}

func NewOrchestrator(storage Storage, images ImageStore, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{storage: storage, images: images, logger: logger}
}

// UploadImages uploads files to the entity's folder and records one
// reference row per file. No files means no work and an empty result.
func (o *Orchestrator) UploadImages(ctx context.Context, entity EntityType, id uuid.UUID, files []File) ([]string, error) {
	const op = "media.upload"
	if len(files) == 0 {
		return []string{}, nil
	}

	names, err := o.upload(ctx, entity, entity.Folder(id), files)
	if err != nil {
		return nil, err
	}

	if err := o.images.InsertImages(ctx, entity, id, names); err != nil {
		return nil, apperr.FromStore(err, op, "saving image references")
	}
	return names, nil
}

// DeleteImagesByEntity removes every blob under the entity's folder. Rows are
// left to the caller (normally the cascading delete of the owner).
func (o *Orchestrator) DeleteImagesByEntity(ctx context.Context, entity EntityType, id uuid.UUID) error {
	if err := o.storage.DeleteFolder(ctx, entity.Folder(id)); err != nil {
		return fmt.Errorf("delete %s images: %w", entity, err)
	}
	return nil
}

// ReplaceImages uploads newFiles, unions their references with existing
// (duplicates collapsed, first occurrence wins the position) and makes that
// set the entity's complete image list.
func (o *Orchestrator) ReplaceImages(ctx context.Context, entity EntityType, id uuid.UUID, existing []string, newFiles []File) ([]string, error) {
	const op = "media.replace"

	var uploaded []string
	if len(newFiles) > 0 {
		var err error
		uploaded, err = o.upload(ctx, entity, entity.Folder(id), newFiles)
		if err != nil {
			return nil, err
		}
	}

	final := MergeImageSet(existing, uploaded)
	if err := o.images.ReplaceImages(ctx, entity, id, final); err != nil {
		return nil, apperr.FromStore(err, op, "replacing image references")
	}
	return final, nil
}

// Images returns the stored references of several entities at once.
func (o *Orchestrator) Images(ctx context.Context, entity EntityType, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	return o.images.ListImages(ctx, entity, ids)
}

// UploadLoose uploads files to an arbitrary folder without recording
// references, returning file names and URLs in input order.
func (o *Orchestrator) UploadLoose(ctx context.Context, folder string, files []File) ([]string, []string, error) {
	urls, err := o.uploadURLs(ctx, "upload", folder, files)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(urls))
	for i, u := range urls {
		names[i] = FileName(u)
	}
	return names, urls, nil
}

func (o *Orchestrator) upload(ctx context.Context, entity EntityType, folder string, files []File) ([]string, error) {
	urls, err := o.uploadURLs(ctx, string(entity), folder, files)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(urls))
	for i, u := range urls {
		names[i] = FileName(u)
	}
	return names, nil
}

// uploadURLs fans the uploads out and waits for all of them. The first
// failure cancels the rest and fails the whole call.
func (o *Orchestrator) uploadURLs(ctx context.Context, label, folder string, files []File) ([]string, error) {
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i, f := range files {
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", f.Name, err)
			}
			defer rc.Close()

			u, err := o.storage.Upload(gctx, rc, f.Name, folder)
			if err != nil {
				metrics.ImageUploads.WithLabelValues(label, "error").Inc()
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			metrics.ImageUploads.WithLabelValues(label, "ok").Inc()
			urls[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Errorw("image upload failed", "folder", folder, "files", len(files), "error", err)
		return nil, apperr.Wrap(err, apperr.EINVALID, "media.upload", "Error uploading images. Please try again.")
	}
	return urls, nil
}

// MergeImageSet returns existing followed by uploaded with exact duplicates
// removed. The result is never nil.
func MergeImageSet(existing, uploaded []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(uploaded))
	out := make([]string, 0, len(existing)+len(uploaded))
	for _, list := range [][]string{existing, uploaded} {
		for _, name := range list {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// FileName is the tail path segment of a storage URL, the form in which
// references are persisted.
func FileName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	parts := strings.Split(rawURL, "/")
	return parts[len(parts)-1]
}

// ValidateFiles enforces the per-request file count and the accepted image
// formats, judged by the declared MIME subtype.
func ValidateFiles(files []File) error {
	const op = "media.validate"
	if len(files) > MaxFilesPerRequest {
		return apperr.Errorf(apperr.EINVALID, op, "Too many files: at most %d images per request", MaxFilesPerRequest)
	}
	for _, f := range files {
		subtype := f.ContentType
		if i := strings.Index(subtype, "/"); i >= 0 {
			subtype = subtype[i+1:]
		}
		if i := strings.Index(subtype, ";"); i >= 0 {
			subtype = subtype[:i]
		}
		if !allowedExtensions[strings.ToLower(strings.TrimSpace(subtype))] {
			return apperr.Errorf(apperr.EINVALID, op,
				"The file %s is not a valid image. Please use accepted formats: JPG, JPEG, PNG, or GIF.", f.Name)
		}
	}
	return nil
}
