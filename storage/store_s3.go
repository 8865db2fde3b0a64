package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentTypeJSON = "application/json"

/* Store objects via s3 provider. */
type StoreS3 struct {
	client *minio.Client
	bucket string
}

/** Creates a new S3 store with static credentials. */
func NewS3Store(endpoint string, accessKey string, secretKey string, secure bool, bucket string, region string) (FileStorage, error) {
	return newS3Store(endpoint, secure, bucket, region, credentials.NewStaticV4(accessKey, secretKey, ""))
}

/** Creates a new S3 store using IAM credentials. */
func NewS3StoreIAM(endpoint string, secure bool, bucket string, region string) (FileStorage, error) {
	return newS3Store(endpoint, secure, bucket, region, credentials.NewIAM(""))
}

func newS3Store(endpoint string, secure bool, bucket string, region string, creds *credentials.Credentials) (FileStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Secure: secure,
		Region: region,
		Creds:  creds,
	})
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	b, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !b {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
		if err != nil {
			return nil, err
		}
	}
	return &StoreS3{client, bucket}, nil
}

// s3NotFound reports if the error is a missing object or bucket.
func s3NotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

func (s *StoreS3) Put(ctx context.Context, label, id string, data []byte) error {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "put", err)
	}()
	prom.DataUploads.Inc()
	_, err = s.client.PutObject(ctx, s.bucket, objectPath(label, id), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeJSON})
	if err == nil {
		prom.DataUploaded.Add(float64(len(data)))
	}
	return err
}

func (s *StoreS3) Fetch(ctx context.Context, label, id string) ([]byte, error) {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "fetch", err)
	}()
	prom.DataDownloads.Inc()
	reader, err := s.client.GetObject(ctx, s.bucket, objectPath(label, id), minio.GetObjectOptions{})
	if err != nil {
		if s3NotFound(err) {
			return nil, fmt.Errorf("%w", &NotFoundError{})
		}
		return nil, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", minio.ToErrorResponse(err).Code)})
	}
	defer reader.Close()
	// minio defers the request until first read so missing objects surface here
	data, err := io.ReadAll(reader)
	if err != nil {
		if s3NotFound(err) {
			return nil, fmt.Errorf("%w", &NotFoundError{})
		}
		return nil, fmt.Errorf("%w", &ReadError{msg: fmt.Sprintf("%v", err)})
	}
	prom.DataDownloaded.Add(float64(len(data)))
	return data, nil
}

func (s *StoreS3) Exists(ctx context.Context, label, id string) (bool, error) {
	prom.DataExists.Inc()
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "exists", err)
	}()
	_, err = s.client.StatObject(ctx, s.bucket, objectPath(label, id), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if s3NotFound(err) {
		err = nil
		return false, nil
	}
	return false, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", minio.ToErrorResponse(err).Code)})
}

func (s *StoreS3) List(ctx context.Context, label string) ([]string, error) {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "list", err)
	}()
	keys := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: label + "/", Recursive: true}) {
		if obj.Err != nil {
			err = obj.Err
			return nil, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", minio.ToErrorResponse(err).Code)})
		}
		keys = append(keys, obj.Key)
	}
	return idsUnder(label, keys), nil
}

func (s *StoreS3) Delete(ctx context.Context, label, id string) (bool, error) {
	prom.DataDeletes.Inc()
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "delete", err)
	}()
	// RemoveObject doesn't report missing objects
	exists, err := s.Exists(ctx, label, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("%w", &NotFoundError{})
	}
	err = s.client.RemoveObject(ctx, s.bucket, objectPath(label, id), minio.RemoveObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", minio.ToErrorResponse(err).Code)})
	}
	return true, nil
}
