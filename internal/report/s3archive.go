package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/phishsim/internal/pkg/logger"
)

// S3Archiver keeps a copy of every downloaded export in S3 for audit.
// Archiving is best effort: a failed upload is logged, never surfaced
// to the administrator downloading the report.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds an archiver from the ambient AWS configuration.
func NewS3Archiver(ctx context.Context, bucket, prefix, region string) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Archive uploads one rendered report under
// <prefix>/<kind>/<campaign-id>/<timestamp><ext>.
func (a *S3Archiver) Archive(ctx context.Context, kind, campaignID string, r Renderer, data []byte) {
	key := fmt.Sprintf("%s/%s/%s/%s%s",
		a.prefix, kind, campaignID,
		time.Now().UTC().Format("2006-01-02T15-04-05Z"), r.Extension())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(r.ContentType()),
	})
	if err != nil {
		logger.Warn("export archive upload failed", "key", key, "error", err.Error())
		return
	}
	logger.Debug("export archived", "key", key, "bytes", len(data))
}
