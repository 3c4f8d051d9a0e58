package media

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"

	"github.com/google/uuid"
)

// EntityType selects the image-reference table and the blob folder
// convention for an entity.
type EntityType string

const (
	Category EntityType = "category"
	Product  EntityType = "product"
)

// Folder is the blob folder grouping every image of one entity instance.
func (t EntityType) Folder(id uuid.UUID) string {
	switch t {
	case Category:
		return "categories/" + id.String()
	default:
		return "products/" + id.String()
	}
}

// File is an uploaded file not yet sent to object storage.
type File struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts multipart file headers without reading them.
func FromMultipart(headers []*multipart.FileHeader) []File {
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// FromBytes builds a File backed by an in-memory buffer.
func FromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Storage is the object storage boundary.
type Storage interface {
	Upload(ctx context.Context, file io.Reader, originalName, folder string) (string, error)
	DeleteFolder(ctx context.Context, folder string) error
}

// ImageStore persists image references for categories and products.
type ImageStore interface {
	InsertImages(ctx context.Context, entity EntityType, id uuid.UUID, names []string) error
	ReplaceImages(ctx context.Context, entity EntityType, id uuid.UUID, names []string) error
	ListImages(ctx context.Context, entity EntityType, ids []uuid.UUID) (map[uuid.UUID][]string, error)
}
