// Package archive exports finalized submissions as JSON objects to an
// S3-compatible bucket. Export is best-effort: the sequencer logs failures
// and moves on, since the submission log in PostgreSQL is the system of
// record.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	sc "github.com/dmitrijs2005/clientintake/internal/server/config"
	"github.com/dmitrijs2005/clientintake/internal/server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// S3Exporter writes one object per submission under
// submissions/<userID>/<submissionID>.json.
type S3Exporter struct {
	config *sc.Config
}

func NewS3Exporter(cfg *sc.Config) *S3Exporter {
	return &S3Exporter{config: cfg}
}

func (e *S3Exporter) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(e.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Export uploads the submission. The object body is the full submission
// envelope (id, user, timestamp, data, flags), so the log can be rebuilt
// from the bucket alone.
func (e *S3Exporter) Export(ctx context.Context, sub *models.Submission) error {
	client, err := e.getClient(ctx)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	body, err := json.Marshal(envelope{
		ID:          sub.ID,
		UserID:      sub.UserID,
		SubmittedAt: sub.SubmittedAt.Format(time.RFC3339),
		Status:      string(sub.Status),
		Version:     sub.Version,
		Data:        sub.Data,
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	bucket := e.config.S3Bucket
	key := fmt.Sprintf("submissions/%s/%s.json", sub.UserID, sub.ID)
	contentType := "application/json"

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

type envelope struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	SubmittedAt string                `json:"submittedAt"`
	Status      string                `json:"status"`
	Version     int                   `json:"version"`
	Data        models.SubmissionData `json:"data"`
}
