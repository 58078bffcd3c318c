package infra

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tnqbao/gau-drive-service/config"
)

type MinioClient struct {
	Client   *minio.Client
	Bucket   string
	Endpoint string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: false,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	client := &MinioClient{
		Client:   minioClient,
		Bucket:   cfg.Storage.Bucket,
		Endpoint: endpoint,
	}

	if err := client.ensureBucket(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to ensure MinIO bucket %q: %v", client.Bucket, err))
	}

	log.Println("Connected to MinIO:", endpoint)

	return client
}

func (m *MinioClient) ensureBucket(ctx context.Context) error {
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{})
}

// Put streams an object into the storage bucket. size may be -1 when the
// total length is not known up front.
func (m *MinioClient) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store object %q: %w", key, err)
	}
	return nil
}

// Get returns a reader over the object's bytes. The object is stat-ed first
// so that a missing key fails here instead of on the first read.
func (m *MinioClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("failed to stat object %q: %w", key, err)
	}

	obj, err := m.Client.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	return obj, nil
}

func (m *MinioClient) Remove(ctx context.Context, key string) error {
	err := m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %q: %w", key, err)
	}
	return nil
}
