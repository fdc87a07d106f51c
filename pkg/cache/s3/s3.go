package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectAPI is the part of *s3.Client the persister needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Persister stores cache records as objects "<prefix>/<name>.cache" in
// one bucket.
type S3Persister struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewS3PersisterParams defines the configuration for an S3Persister.
//
// Prefix is prepended to every object key and may be empty.
type NewS3PersisterParams struct {
	Client ObjectAPI
	Bucket string
	Prefix string
}

func NewS3Persister(params NewS3PersisterParams) *S3Persister {
	return &S3Persister{
		client: params.Client,
		bucket: params.Bucket,
		prefix: params.Prefix,
	}
}

// Key returns the object key of the record named name.
func (p *S3Persister) Key(name string) string {
	return path.Join(p.prefix, name+".cache")
}

func (p *S3Persister) Load(ctx context.Context, name string) ([]byte, error) {
	key := p.Key(name)
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noKey) || errors.As(err, &notFound) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (p *S3Persister) Save(ctx context.Context, name string, data []byte) error {
	key := p.Key(name)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/msgpack"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}
