package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
)

// MaxFetchSize caps in-memory artifact downloads. Samples larger than
// this must go through a presigned URL instead.
const MaxFetchSize = 256 << 20 // 256 MiB

// ErrTooLarge is returned by Fetch when the object exceeds MaxFetchSize.
var ErrTooLarge = errors.New("artifacts: object exceeds in-memory fetch limit")

// ObjectAPI is the slice of the S3 client the store uses.
// *s3.Client satisfies it.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Info describes a stored artifact without fetching its bytes.
type Info struct {
	Size        int64
	ContentType string
	ETag        string
}

// Store reads sample artifacts from the platform's object storage.
// The API returns bucket/key references; Store resolves them.
type Store struct {
	client ObjectAPI
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store over an S3 client. Construct the client the
// usual way:
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := artifacts.NewStore(s3.NewFromConfig(cfg))
func NewStore(client ObjectAPI, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stat returns the artifact's metadata without downloading it.
func (s *Store) Stat(ctx context.Context, ref api.Artifact) (*Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("artifacts: head s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	return &Info{
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
	}, nil
}

// Fetch downloads the artifact's bytes. Objects larger than
// MaxFetchSize return ErrTooLarge without being read.
func (s *Store) Fetch(ctx context.Context, ref api.Artifact) ([]byte, error) {
	info, err := s.Stat(ctx, ref)
	if err != nil {
		return nil, err
	}
	if info.Size > MaxFetchSize {
		return nil, fmt.Errorf("artifacts: s3://%s/%s is %d bytes: %w", ref.Bucket, ref.Key, info.Size, ErrTooLarge)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("artifacts: get s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("artifacts: read s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	s.logger.Debug("fetched artifact", "bucket", ref.Bucket, "key", ref.Key, "bytes", len(data))
	return data, nil
}

// Copy streams the artifact into w, for large samples that should not
// be buffered in memory.
func (s *Store) Copy(ctx context.Context, w io.Writer, ref api.Artifact) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return 0, fmt.Errorf("artifacts: get s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	defer out.Body.Close()
	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, fmt.Errorf("artifacts: stream s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	return n, nil
}

// DownloadURL returns a presigned URL for the artifact, valid for the
// given lifetime. Use this for objects too large for Fetch.
func DownloadURL(ctx context.Context, presign *s3.PresignClient, ref api.Artifact, lifetime time.Duration) (string, error) {
	req, err := presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	}, s3.WithPresignExpires(lifetime))
	if err != nil {
		return "", fmt.Errorf("artifacts: presign s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	return req.URL, nil
}
