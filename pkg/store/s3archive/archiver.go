package s3archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/stats-report/pkg/runtime/export"
	"github.com/rs/zerolog"
)

const DefaultRegion = "us-east-1"

// ObjectPutter is the subset of *s3.Client used for archiving.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewArchiver(client ObjectPutter, bucket, prefix string) (*Archiver, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is empty")
	}
	return &Archiver{client: client, bucket: bucket, prefix: prefix}, nil
}

// LoadConfig resolves AWS settings from the environment and shared config files.
func LoadConfig(ctx context.Context, profile string) (*awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithDefaultRegion(DefaultRegion),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return &awsCfg, nil
}

func NewFromConfig(cfg awssdk.Config, bucket, prefix string) (*Archiver, error) {
	return NewArchiver(s3.NewFromConfig(cfg), bucket, prefix)
}

// Key is the object key a local report file is stored under.
func (a *Archiver) Key(file string) string {
	return path.Join(a.prefix, filepath.Base(file))
}

func (a *Archiver) Archive(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open report for archiving: %w", err)
	}
	defer f.Close()

	key := a.Key(file)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(a.bucket),
		Key:         awssdk.String(key),
		Body:        f,
		ContentType: awssdk.String(export.MediaType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload report to s3://%s/%s: %w", a.bucket, key, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("bucket", a.bucket).
		Str("key", key).
		Msg("report archived")
	return nil
}
