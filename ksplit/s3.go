package ksplit

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the subset of an S3 client the object splits need.
type ObjectStore interface {
	// OpenFrom streams object from byte offset start to its end.
	OpenFrom(ctx context.Context, bucket, object string, start int64) (io.ReadCloser, error)
	// List returns every object under prefix with its size.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

// ObjectInfo names one object and its size in bytes.
type ObjectInfo struct {
	Key  string
	Size int64
}

// S3Options configures NewMinioStore.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}

type minioStore struct {
	client *minio.Client
}

// NewMinioStore connects an ObjectStore to any S3 compatible endpoint.
func NewMinioStore(opts S3Options) (ObjectStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, err
	}
	return MinioStore(client), nil
}

// MinioStore wraps an existing minio client.
func MinioStore(client *minio.Client) ObjectStore {
	return &minioStore{client: client}
}

func (s *minioStore) OpenFrom(ctx context.Context, bucket, object string, start int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if start > 0 {
		// bytes=start-
		if err := opts.SetRange(start, 0); err != nil {
			return nil, err
		}
	}
	obj, err := s.client.GetObject(ctx, bucket, object, opts)
	if err != nil {
		return nil, err
	}
	// GetObject is lazy, Stat surfaces missing objects and bad ranges now.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *minioStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return out, nil
}

// S3Split is a byte range of one object.
type S3Split struct {
	Store  ObjectStore
	Bucket string
	Object string
	Start  int64
	// Length < 0 reads to the end of the object.
	Length int64
}

// S3 returns the split of bucket/object covering [start, start+length].
func S3(store ObjectStore, bucket, object string, start, length int64) *S3Split {
	return &S3Split{Store: store, Bucket: bucket, Object: object, Start: start, Length: length}
}

// S3Splits lists every object under prefix and cuts each into ranges of at
// most size bytes. size <= 0 keeps objects whole.
func S3Splits(ctx context.Context, store ObjectStore, bucket, prefix string, size int64) ([]Split, error) {
	objects, err := store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
	}

	var splits []Split
	for _, obj := range objects {
		n := 1
		if size > 0 && obj.Size > size {
			n = int((obj.Size + size - 1) / size)
		}
		key := obj.Key
		splits = append(splits, byteRanges(obj.Size, n, func(start, length int64) Split {
			return S3(store, bucket, key, start, length)
		})...)
	}
	return splits, nil
}

func (s *S3Split) ID() string {
	return rangeID(fmt.Sprintf("s3://%s/%s", s.Bucket, s.Object), s.Start, s.Length)
}

func (s *S3Split) Open(ctx context.Context) (LineReader, error) {
	rc, err := s.Store.OpenFrom(ctx, s.Bucket, s.Object, s.Start)
	if err != nil {
		return nil, err
	}
	return newRangeLineReader(rc, s.Start, s.Length)
}
