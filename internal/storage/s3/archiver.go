package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

const archivePrefix = "processed/"

// ArchiveOutputs mirrors processed output files into the archive bucket
// under a per-scene prefix. Callers treat failures as non-fatal; a scene's
// processing result never depends on the archive.
func (c *Client) ArchiveOutputs(ctx context.Context, sceneID string, paths []string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open output %s: %w", path, err)
		}

		key := archivePrefix + sceneID + "/" + filepath.Base(path)
		_, err = c.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket: aws.String(c.bucketName),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", path, err)
		}
	}

	return nil
}
