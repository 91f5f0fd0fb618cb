package publish

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"

	"rasteralign/internal/config"
)

// fakeS3 accepts path-style PutObject requests and keeps the bodies in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") || req.Header.Get("X-Amz-Decoded-Content-Length") != "" {
		decoded, err := decodeAWSChunked(body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}
	f.mu.Lock()
	f.objects[parts[0]+"/"+key] = body
	f.types[parts[0]+"/"+key] = req.Header.Get("Content-Type")
	f.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     http.Header{"Etag": {"\"etag123\""}},
	}, nil
}

// decodeAWSChunked strips aws-chunked framing: hex size lines (optionally
// carrying ";chunk-signature=..."), the chunk bytes, and trailing headers after
// the zero-length chunk.
func decodeAWSChunked(body []byte) ([]byte, error) {
	r := bufio.NewReader(bytes.NewReader(body))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		sizeField, _, _ := strings.Cut(strings.TrimRight(line, "\r\n"), ";")
		size, err := strconv.ParseInt(strings.TrimSpace(sizeField), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chunk size %q: %w", sizeField, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return nil, fmt.Errorf("read chunk: %w", err)
		}
		if _, err := r.Discard(2); err != nil {
			return nil, fmt.Errorf("read chunk terminator: %w", err)
		}
	}
}

func TestDecodeAWSChunked(t *testing.T) {
	framed := "8\r\nncols 1\n\r\n3;chunk-signature=abc\r\nxyz\r\n0\r\nx-amz-checksum-crc32:2DK7ZQ==\r\n\r\n"
	got, err := decodeAWSChunked([]byte(framed))
	if err != nil {
		t.Fatalf("decodeAWSChunked: %v", err)
	}
	if string(got) != "ncols 1\nxyz" {
		t.Fatalf("decoded = %q", got)
	}
}

func writeOutputs(t *testing.T, root string) []string {
	t.Helper()
	files := map[string]string{
		"a_norm.asc":         "ncols 1\n",
		"a_norm.prj":         "GEOGCS[\"WGS 84\"]\n",
		"sub/roads.asc":      "ncols 2\n",
		"sub/roads.prj":      "GEOGCS[\"WGS 84\"]\n",
		"sub/unrelated.json": "{}",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return []string{filepath.Join(root, "a_norm.asc"), filepath.Join(root, "sub", "roads.asc")}
}

func TestS3PublisherUploadsPrimariesAndCompanions(t *testing.T) {
	root := t.TempDir()
	files := writeOutputs(t, root)
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}

	cfg := config.Publish{
		Driver:          "s3",
		Bucket:          "aligned",
		Region:          "us-east-1",
		Prefix:          "runs/2024",
		PathStyle:       true,
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}
	pub, err := NewS3(context.Background(), cfg, []string{".prj"}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	res, err := pub.Publish(context.Background(), root, files)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{
		"runs/2024/a_norm.asc",
		"runs/2024/a_norm.prj",
		"runs/2024/sub/roads.asc",
		"runs/2024/sub/roads.prj",
	}
	if diff := cmp.Diff(want, res.Written); diff != "" {
		t.Fatalf("written keys mismatch (-want +got):\n%s", diff)
	}
	if res.Destination != "s3://aligned/runs/2024" {
		t.Fatalf("destination = %q", res.Destination)
	}

	var stored []string
	for k := range fake.objects {
		stored = append(stored, k)
	}
	sort.Strings(stored)
	if len(stored) != 4 || stored[0] != "aligned/runs/2024/a_norm.asc" {
		t.Fatalf("unexpected stored objects: %v", stored)
	}
	if string(fake.objects["aligned/runs/2024/a_norm.asc"]) != "ncols 1\n" {
		t.Fatalf("unexpected body: %q", fake.objects["aligned/runs/2024/a_norm.asc"])
	}
	if fake.types["aligned/runs/2024/a_norm.asc"] != "text/plain" {
		t.Fatalf("content type = %q", fake.types["aligned/runs/2024/a_norm.asc"])
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), config.Publish{Driver: "s3"}, nil); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestDirPublisherCopiesTree(t *testing.T) {
	root := t.TempDir()
	files := writeOutputs(t, root)
	dest := filepath.Join(t.TempDir(), "published")

	pub, err := New(context.Background(), config.Publish{Driver: "dir", Dir: dest}, []string{".prj"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := pub.Publish(context.Background(), root, files)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(res.Written) != 4 {
		t.Fatalf("written = %v, want 4 files", res.Written)
	}
	for _, rel := range []string{"a_norm.asc", "a_norm.prj", "sub/roads.asc", "sub/roads.prj"} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("missing published %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "sub", "unrelated.json")); !os.IsNotExist(err) {
		t.Fatal("non-companion file must not be published")
	}
}

func TestPublishRejectsFilesOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "x.asc")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	pub := &DirPublisher{Dir: t.TempDir()}
	if _, err := pub.Publish(context.Background(), root, []string{outside}); err == nil {
		t.Fatal("expected error for file outside root")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), config.Publish{Driver: "ftp"}, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
