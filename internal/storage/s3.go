package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store implements ObjectStore on Amazon S3 or an S3-compatible endpoint.
type S3Store struct {
	client S3API
}

// NewS3Store wraps an existing client.
func NewS3Store(client S3API) *S3Store {
	return &S3Store{client: client}
}

// NewS3StoreFromEnv builds a client from the default AWS credential chain.
// AWS_REGION and AWS_ENDPOINT_URL are honoured by the SDK itself; usePathStyle is
// needed for most local S3 emulators.
func NewS3StoreFromEnv(ctx context.Context, usePathStyle bool) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})
	return NewS3Store(client), nil
}

func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "put s3://%s/%s", bucket, key)
	}
	return nil
}

func (s *S3Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.Stat(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return obj.Body, nil
}

// Stat reads the object together with its content type and modification time.
func (s *S3Store) Stat(ctx context.Context, bucket, key string) (Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Object{}, errors.Wrapf(ErrNotFound, "get s3://%s/%s", bucket, key)
		}
		return Object{}, errors.Wrapf(err, "get s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Object{}, errors.Wrapf(err, "read s3://%s/%s", bucket, key)
	}

	return Object{
		Bucket:       bucket,
		Key:          key,
		Body:         body,
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrapf(err, "delete s3://%s/%s", bucket, key)
	}
	return nil
}

// ListObjects pages through ListObjectsV2 until the listing is exhausted.
func (s *S3Store) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var (
		result []ObjectInfo
		token  *string
	)

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "list s3://%s/%s", bucket, prefix)
		}

		for _, obj := range out.Contents {
			result = append(result, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return result, nil
		}
		token = out.NextContinuationToken
	}
}

var (
	_ ObjectStore = (*S3Store)(nil)
	_ Lister      = (*S3Store)(nil)
	_ Stater      = (*S3Store)(nil)
	_ ObjectStore = (*MemoryStore)(nil)
	_ Lister      = (*MemoryStore)(nil)
	_ Stater      = (*MemoryStore)(nil)
)
