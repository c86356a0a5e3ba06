package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
)

// fakeObjects serves objects from a map keyed "bucket/key".
type fakeObjects struct {
	objects   map[string]string
	headCalls int
	getCalls  int
	headSize  int64 // overrides reported size when > 0
}

func (f *fakeObjects) key(in *string, bucket *string) string {
	return aws.ToString(bucket) + "/" + aws.ToString(in)
}

func (f *fakeObjects) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getCalls++
	body, ok := f.objects[f.key(params.Key, params.Bucket)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (f *fakeObjects) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headCalls++
	body, ok := f.objects[f.key(params.Key, params.Bucket)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	size := int64(len(body))
	if f.headSize > 0 {
		size = f.headSize
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
		ETag:          aws.String(`"abc123"`),
	}, nil
}

func TestFetch(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{
		"rodeo-samples/smp-1.bin": "MZ\x90\x00payload",
	}}
	store := NewStore(fake)

	data, err := store.Fetch(context.Background(), api.Artifact{Bucket: "rodeo-samples", Key: "smp-1.bin"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "MZ\x90\x00payload" {
		t.Errorf("Fetch bytes: got %q", data)
	}
	if fake.headCalls != 1 || fake.getCalls != 1 {
		t.Errorf("calls: head=%d get=%d, want 1/1", fake.headCalls, fake.getCalls)
	}
}

func TestFetchRefusesOversizedObject(t *testing.T) {
	fake := &fakeObjects{
		objects:  map[string]string{"rodeo-samples/huge.bin": "stub"},
		headSize: MaxFetchSize + 1,
	}
	store := NewStore(fake)

	_, err := store.Fetch(context.Background(), api.Artifact{Bucket: "rodeo-samples", Key: "huge.bin"})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error: got %v, want ErrTooLarge", err)
	}
	if fake.getCalls != 0 {
		t.Errorf("oversized object was downloaded anyway (%d GetObject calls)", fake.getCalls)
	}
}

func TestFetchMissingObject(t *testing.T) {
	store := NewStore(&fakeObjects{objects: map[string]string{}})
	_, err := store.Fetch(context.Background(), api.Artifact{Bucket: "rodeo-samples", Key: "gone"})
	if err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestStat(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{"rodeo-samples/smp-2.bin": "abcdef"}}
	store := NewStore(fake)

	info, err := store.Stat(context.Background(), api.Artifact{Bucket: "rodeo-samples", Key: "smp-2.bin"})
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 6 {
		t.Errorf("Size: got %d, want 6", info.Size)
	}
	if info.ContentType != "application/octet-stream" {
		t.Errorf("ContentType: got %q", info.ContentType)
	}
	if fake.getCalls != 0 {
		t.Errorf("Stat downloaded the object (%d GetObject calls)", fake.getCalls)
	}
}

func TestCopy(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{"rodeo-samples/smp-3.bin": "streamed-bytes"}}
	store := NewStore(fake)

	var buf bytes.Buffer
	n, err := store.Copy(context.Background(), &buf, api.Artifact{Bucket: "rodeo-samples", Key: "smp-3.bin"})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(buf.Len()) || buf.String() != "streamed-bytes" {
		t.Errorf("Copy: wrote %d bytes %q", n, buf.String())
	}
	if fake.headCalls != 0 {
		t.Errorf("Copy issued %d HeadObject calls, want 0", fake.headCalls)
	}
}
