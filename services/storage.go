package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"pi_monitor_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	syncConcurrency = 4
	syncRetries     = 5
	syncRetryDelay  = 500 * time.Millisecond
)

// LocalResources resolves jurisdiction resource folders on disk
type LocalResources struct {
	baseDir string
}

// NewLocalResources creates a resolver rooted at baseDir
func NewLocalResources(baseDir string) *LocalResources {
	return &LocalResources{baseDir: baseDir}
}

// Dir returns the resources folder for a jurisdiction slug
func (l *LocalResources) Dir(slug string) string {
	return filepath.Join(l.baseDir, slug)
}

// Write saves content under key, creating parent directories
func (l *LocalResources) Write(key string, reader io.Reader) (int64, error) {
	fullPath := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(fullPath, filepath.Clean(l.baseDir)+string(os.PathSeparator)) {
		return 0, fmt.Errorf("key escapes resources folder: %s", key)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	// write next to the target so a failed download never leaves half a file
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to save file: %w", err)
	}
	return written, nil
}

// objectStore is the part of the S3 API resource syncing needs
type objectStore interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// R2Resources downloads resource folders from a Cloudflare R2 bucket
type R2Resources struct {
	client     objectStore
	bucket     string
	prefix     string
	log        *logrus.Logger
	retryDelay time.Duration
}

// NewR2Resources creates a resource bucket client from configuration
func NewR2Resources(cfg *config.Config, log *logrus.Logger) (*R2Resources, error) {
	// R2 endpoint format: https://<account_id>.r2.cloudflarestorage.com
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)

	creds := credentials.NewStaticCredentialsProvider(
		cfg.R2AccessKeyID,
		cfg.R2SecretAccessKey,
		"",
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion("auto"), // R2 uses "auto" region
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return newR2Resources(client, cfg.R2BucketName, cfg.R2Prefix, log), nil
}

func newR2Resources(client objectStore, bucket, prefix string, log *logrus.Logger) *R2Resources {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &R2Resources{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		log:        log,
		retryDelay: syncRetryDelay,
	}
}

// Sync downloads every object under <prefix><slug>/ for each slug into local,
// keeping the path below the prefix. It returns the number of files written.
func (r *R2Resources) Sync(ctx context.Context, local *LocalResources, slugs []string) (int, error) {
	var keys []string
	for _, slug := range slugs {
		found, err := r.list(ctx, r.prefix+slug+"/")
		if err != nil {
			return 0, err
		}
		keys = append(keys, found...)
	}

	var written atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(syncConcurrency)
	for _, key := range keys {
		key := key
		eg.Go(func() error {
			if err := r.download(egCtx, local, key); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return int(written.Load()), err
	}

	r.log.WithFields(logrus.Fields{"bucket": r.bucket, "files": written.Load()}).Info("Resources synchronized")
	return int(written.Load()), nil
}

func (r *R2Resources) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil && !strings.HasSuffix(*obj.Key, "/") {
				keys = append(keys, *obj.Key)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated || out.NextContinuationToken == nil {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

func (r *R2Resources) download(ctx context.Context, local *LocalResources, key string) error {
	err := backoff.Retry(
		func() error {
			out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(r.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("failed to get object from R2: %w", err)
			}
			defer out.Body.Close()

			_, err = local.Write(strings.TrimPrefix(key, r.prefix), out.Body)
			return err
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryDelay), syncRetries),
			ctx,
		),
	)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	r.log.WithField("key", key).Debug("Downloaded resource")
	return nil
}
