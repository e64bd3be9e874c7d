package disk

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Objects above this size go through the multipart uploader.
const minMultipartSize = 12 << 20

// S3 stores attachment bytes in an S3 compatible bucket.
type S3 struct {
	c      *s3.Client
	bucket *string
}

// NewS3 builds a client from the s3.* viper keys and probes the bucket so
// a bad configuration fails at startup instead of mid-save.
func NewS3(ctx context.Context) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("s3.access_key_id"),
			viper.GetString("s3.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("s3.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("s3.region")
		if endpoint := viper.GetString("s3.endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3{
		c:      client,
		bucket: bucket,
	}, nil
}

func (d *S3) Remove(ctx context.Context, paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}

		_, err := d.c.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: d.bucket,
			Key:    aws.String(objectKey(p)),
		})
		if err != nil {
			zap.L().Warn("Failed to remove object", zap.String("key", p), zap.Error(err))
		}
	}
}

func (d *S3) Move(ctx context.Context, source, target string, vis Visibility) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("%w: failed to open source %q, %v", ErrStorage, source, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: failed to stat source %q, %v", ErrStorage, source, err)
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(source); err == nil {
		contentType = mt.String()
	}

	acl := types.ObjectCannedACLPrivate
	if vis == Public {
		acl = types.ObjectCannedACLPublicRead
	}

	input := &s3.PutObjectInput{
		Bucket:        d.bucket,
		Key:           aws.String(objectKey(target)),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
		ACL:           acl,
	}

	if stat.Size() > minMultipartSize {
		uploader := manager.NewUploader(d.c, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = d.c.PutObject(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to upload %q, %v", ErrStorage, target, err)
	}

	return nil
}

// objectKey strips the leading slash interpolated templates usually carry;
// S3 keys with one produce an empty root "directory" in most browsers.
func objectKey(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p[1:]
	}

	return p
}
