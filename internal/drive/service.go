// Package drive uploads export artifacts to a shared Google Drive
// folder, the hand-off point for offices without bucket access.
package drive

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Service struct {
	srv *drive.Service
}

// NewService authenticates with a service-account credentials JSON blob.
func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveFileScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to build drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

// UploadFile creates (or replaces) name inside folderID and returns the
// new file's ID. An existing file of the same name is removed first so
// re-running an export for the same route and date stays idempotent.
func (s *Service) UploadFile(ctx context.Context, folderID, name, contentType string, data []byte) (string, error) {
	if folderID == "" {
		folderID = "root"
	}

	existing, err := s.srv.Files.List().
		Q(fmt.Sprintf("name = '%s' and '%s' in parents and trashed=false", name, folderID)).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to look up existing export: %w", err)
	}
	for _, f := range existing.Files {
		if err := s.srv.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to replace existing export %s: %w", name, err)
		}
	}

	created, err := s.srv.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{folderID},
	}).Media(bytes.NewReader(data), googleapi.ContentType(contentType)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to upload export: %w", err)
	}

	return created.Id, nil
}
