package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ArchiveService keeps a copy of every uploaded registration file.
type ArchiveService interface {
	Archive(ctx context.Context, fileName string, body io.Reader) (string, error)
}

// CloudinaryArchive stores files as raw Cloudinary assets.
type CloudinaryArchive struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

// NewCloudinaryArchive connects to Cloudinary with the given credentials.
func NewCloudinaryArchive(cloudName, apiKey, apiSecret, folder string) (*CloudinaryArchive, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryArchive{cld: cld, folder: folder, now: time.Now}, nil
}

// Archive uploads body and returns the Cloudinary public id.
func (a *CloudinaryArchive) Archive(ctx context.Context, fileName string, body io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       a.folder,
		PublicID:     archiveName(fileName, a.now()),
		ResourceType: "raw",
	}
	result, err := a.cld.Upload.Upload(ctx, body, params)
	if err != nil {
		return "", fmt.Errorf("storage: failed to archive %s: %w", fileName, err)
	}
	if result.PublicID == "" {
		return "", fmt.Errorf("storage: no public ID returned for %s", fileName)
	}
	return result.PublicID, nil
}

// archiveName prefixes the base file name with a UTC timestamp so repeated
// uploads of the same file do not overwrite each other.
func archiveName(fileName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "registrations.csv"
	}
	return at.UTC().Format("20060102T150405Z") + "_" + base
}

// NoopArchive is used when no archive is configured.
type NoopArchive struct{}

func (NoopArchive) Archive(context.Context, string, io.Reader) (string, error) {
	return "", nil
}
