package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// fakeBucket is a path-style S3 endpoint covering the calls the S3 store makes.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead || r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3(t *testing.T) *S3 {
	t.Helper()
	srv := httptest.NewServer(&fakeBucket{objects: map[string][]byte{}, types: map[string]string{}})
	t.Cleanup(srv.Close)

	awsCfg := aws.Config{Region: "us-east-1", Credentials: aws.AnonymousCredentials{}}
	return newS3FromConfig(awsCfg, S3Config{Bucket: "archives", Endpoint: srv.URL, PathStyle: true})
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	s := newFakeS3(t)

	if _, err := s.Head(ctx, "runs/x.zip"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	info, err := s.Put(ctx, "runs/x.zip", bytes.NewReader([]byte("zip")), PutOptions{ContentType: "application/zip"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 3 || info.ETag != "etag" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "runs/x.zip", bytes.NewReader(nil), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	_, rc, err := s.Get(ctx, "runs/x.zip")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "zip" {
		t.Fatalf("content %q", data)
	}

	list, err := s.List(ctx, "runs/")
	if err != nil || len(list) != 1 || list[0].Key != "runs/x.zip" {
		t.Fatalf("list: %v %+v", err, list)
	}

	if ok, err := s.Delete(ctx, "runs/x.zip"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, _, err := s.Get(ctx, "runs/x.zip"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if s.Driver() != DriverS3 {
		t.Fatalf("driver %s", s.Driver())
	}
}
