package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
)

// maxTextBytes is the largest object read back as prompt text.
const maxTextBytes = 8 << 20

// Store keeps uploaded project documents and policy corpora in one MinIO bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Put uploads r under kind/<uuid>/<name> and returns the object key as handle.
func (s *Store) Put(ctx context.Context, kind documents.Kind, name, contentType string, r io.Reader, size int64) (documents.Handle, error) {
	key, err := objectKey(kind, name)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	if _, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return documents.Handle(key), nil
}

// Text reads a stored object back as plain text.
func (s *Store) Text(ctx context.Context, h documents.Handle) (string, error) {
	key := strings.TrimSpace(string(h))
	if key == "" {
		return "", documents.ErrNotFound
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return "", mapErr(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return "", mapErr(err)
	}
	if !isText(info.ContentType, key) {
		return "", fmt.Errorf("%w: %s (%s)", documents.ErrUnsupported, key, info.ContentType)
	}
	if info.Size > maxTextBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", documents.ErrTooLarge, key, info.Size)
	}
	text, err := readText(obj, key, maxTextBytes)
	if err != nil {
		return "", mapErr(err)
	}
	return text, nil
}

func mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return documents.ErrNotFound
	}
	return err
}
