package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go/aws"                  //nolint:staticcheck // TODO: Migrate to aws-sdk-go-v2 feature/s3/manager
	"github.com/aws/aws-sdk-go/aws/session"          //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/s3/s3manager" //nolint:staticcheck
	"github.com/dustin/go-humanize"
)

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Store uploads renders to an S3 bucket
type S3Store struct {
	bucket   string
	uploader uploader
}

// NewS3Store creates an S3 store using the default credential chain
func NewS3Store(region, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		bucket:   bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Name returns the store name
func (s *S3Store) Name() string {
	return "s3"
}

// Put uploads data under key
func (s *S3Store) Put(ctx context.Context, key string, data []byte) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(wavContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Printf("☁️  Uploaded %s to s3://%s (%s)", key, s.bucket, humanize.Bytes(uint64(len(data))))
	return &Object{Key: key, Location: out.Location, Size: len(data)}, nil
}
