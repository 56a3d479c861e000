package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/pkg/config"
)

// s3MaxKeysPerRequest is the DeleteObjects limit.
const s3MaxKeysPerRequest = 1000

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store deletes image objects from one S3-compatible bucket. References are object keys.
type S3Store struct {
	client S3API
	bucket string
	log    *zap.Logger
}

func NewS3Store(client S3API, bucket string, log *zap.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, log: log}
}

// NewS3Client builds an S3 client from the default AWS chain, overridden by
// static credentials and a custom endpoint when configured.
func NewS3Client(ctx context.Context, cfg config.MediaConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3PathStyle
	}), nil
}

func (s *S3Store) DeleteMany(ctx context.Context, refs []string) DeleteResult {
	var res DeleteResult
	for _, batch := range chunk(unique(refs), s3MaxKeysPerRequest) {
		objects := make([]types.ObjectIdentifier, 0, len(batch))
		for _, key := range batch {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(false)},
		})
		if err != nil {
			s.log.Warn("s3 delete objects failed",
				zap.String("bucket", s.bucket), zap.Int("keys", len(batch)), zap.Error(err))
			res.Failed = append(res.Failed, batch...)
			res.Err = err
			continue
		}

		res.Deleted += len(out.Deleted)
		for _, e := range out.Errors {
			key := aws.ToString(e.Key)
			res.Failed = append(res.Failed, key)
			res.Err = fmt.Errorf("delete %s: %s: %s", key, aws.ToString(e.Code), aws.ToString(e.Message))
		}
		if missing := len(batch) - len(out.Deleted) - len(out.Errors); missing > 0 {
			// A key absent from both lists was not confirmed deleted.
			res.Failed = append(res.Failed, unconfirmed(batch, out)...)
			if res.Err == nil {
				res.Err = errors.New("s3 did not confirm every key")
			}
		}
	}
	return res
}

func unconfirmed(batch []string, out *s3.DeleteObjectsOutput) []string {
	seen := make(map[string]struct{}, len(out.Deleted)+len(out.Errors))
	for _, d := range out.Deleted {
		seen[aws.ToString(d.Key)] = struct{}{}
	}
	for _, e := range out.Errors {
		seen[aws.ToString(e.Key)] = struct{}{}
	}
	var keys []string
	for _, k := range batch {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
