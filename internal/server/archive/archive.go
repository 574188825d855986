// Package archive stores an audit record of every provisioning run in an
// S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Record describes one workflow run.
type Record struct {
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName,omitempty"`
	InstanceID  string    `json:"instanceId,omitempty"`
	Flow        string    `json:"flow"`
	Prompt      string    `json:"prompt,omitempty"`
	Success     bool      `json:"success"`
	URL         string    `json:"url,omitempty"`
	Error       string    `json:"error,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

type Archiver interface {
	Archive(ctx context.Context, rec Record) error
}

// NoopArchiver discards records.
type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, Record) error { return nil }

// S3Config mirrors the server's storage settings.
type S3Config struct {
	Bucket       string
	Region       string
	RootUser     string
	RootPassword string
	BaseEndpoint string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archiver writes records as JSON objects.
type S3Archiver struct {
	client putObjectAPI
	bucket string
	now    func() time.Time
	newID  func() string
}

// New returns a NoopArchiver when no bucket is configured and an
// S3Archiver otherwise.
func New(ctx context.Context, cfg S3Config) (Archiver, error) {
	if cfg.Bucket == "" {
		return NoopArchiver{}, nil
	}
	return NewS3Archiver(ctx, cfg)
}

// NewS3Archiver builds a client with static credentials and path-style
// addressing, which MinIO and other S3-compatible stores expect.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newS3Archiver(client, cfg.Bucket), nil
}

func newS3Archiver(client putObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// ObjectKey is provisioning/{yyyy}/{mm}/{dd}/{projectID}-{id}.json.
func ObjectKey(projectID string, t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("provisioning/%04d/%02d/%02d/%s-%s.json", t.Year(), int(t.Month()), t.Day(), projectID, id)
}

func (a *S3Archiver) Archive(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	key := ObjectKey(rec.ProjectID, a.now(), a.newID())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
