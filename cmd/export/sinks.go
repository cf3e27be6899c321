package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yalgud-dairy/orders-admin/internal/drive"
	"github.com/yalgud-dairy/orders-admin/internal/storage"
	"github.com/yalgud-dairy/orders-admin/pkg/logger"
)

const csvContentType = "text/csv; charset=utf-8"

// exportSinks fans one built artifact out to every configured target.
type exportSinks struct {
	outDir      string
	objectStore storage.ObjectStorage
	drive       *drive.Service
	driveFolder string
}

func newSinks(c *cli.Context) (*exportSinks, error) {
	s := &exportSinks{
		outDir:      c.String("out-dir"),
		driveFolder: c.String("drive-folder"),
	}

	if s.outDir != "" {
		if err := os.MkdirAll(s.outDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure export dir %s: %w", s.outDir, err)
		}
	}

	if c.String("s3-endpoint") != "" {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  c.String("s3-endpoint"),
			AccessKey: c.String("s3-access-key"),
			SecretKey: c.String("s3-secret-key"),
			Bucket:    c.String("s3-bucket"),
			Region:    c.String("s3-region"),
			UseSSL:    c.Bool("s3-use-ssl"),
			Prefix:    c.String("s3-prefix"),
		})
		if err != nil {
			return nil, err
		}
		s.objectStore = client
	}

	if creds := c.String("drive-credentials"); creds != "" && s.driveFolder != "" {
		svc, err := drive.NewService(c.Context, creds)
		if err != nil {
			return nil, err
		}
		s.drive = svc
	}

	return s, nil
}

func (s *exportSinks) deliver(ctx context.Context, filename string, payload []byte) error {
	if s.outDir != "" {
		path := filepath.Join(s.outDir, filename)
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return fmt.Errorf("failed writing %s: %w", path, err)
		}
		logger.Log.Info().Str("path", path).Int("bytes", len(payload)).Msg("export written")
	}

	if s.objectStore != nil {
		if err := s.objectStore.UploadObject(ctx, filename, payload, csvContentType); err != nil {
			return err
		}
		logger.Log.Info().Str("key", filename).Msg("export uploaded to object storage")
	}

	if s.drive != nil {
		id, err := s.drive.UploadFile(ctx, s.driveFolder, filename, csvContentType, payload)
		if err != nil {
			return err
		}
		logger.Log.Info().Str("file_id", id).Str("name", filename).Msg("export uploaded to drive")
	}

	return nil
}
