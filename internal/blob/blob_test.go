package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem: %v", err)
	}
	return map[string]Store{"fs": fsStore, "memory": NewMemory()}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			payload := []byte("PK zip bytes")
			info, err := s.Put(ctx, "runs/abc/apr_data_2025_08.zip", bytes.NewReader(payload), PutOptions{
				ContentType: "application/zip",
				Metadata:    map[string]string{"run_id": "abc"},
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Size != int64(len(payload)) {
				t.Fatalf("size %d", info.Size)
			}

			got, rc, err := s.Get(ctx, "runs/abc/apr_data_2025_08.zip")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			data, _ := io.ReadAll(rc)
			rc.Close()
			if !bytes.Equal(data, payload) {
				t.Fatalf("content mismatch: %q", data)
			}
			if got.ContentType != "application/zip" || got.Metadata["run_id"] != "abc" {
				t.Fatalf("attributes lost: %+v", got)
			}

			if _, err := s.Put(ctx, "runs/abc/apr_data_2025_08.zip", bytes.NewReader(nil), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}

			list, err := s.List(ctx, "runs/")
			if err != nil || len(list) != 1 {
				t.Fatalf("list: %v %d", err, len(list))
			}
			if list, _ := s.List(ctx, "other/"); len(list) != 0 {
				t.Fatalf("prefix filter failed: %d", len(list))
			}

			deleted, err := s.Delete(ctx, "runs/abc/apr_data_2025_08.zip")
			if err != nil || !deleted {
				t.Fatalf("delete: %v %v", deleted, err)
			}
			if _, err := s.Head(ctx, "runs/abc/apr_data_2025_08.zip"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if deleted, _ := s.Delete(ctx, "runs/abc/apr_data_2025_08.zip"); deleted {
				t.Fatal("second delete reported true")
			}
		})
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem: %v", err)
	}
	for _, key := range []string{"", "../escape", "/abs"} {
		if _, err := s.Put(context.Background(), key, bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestPresign(t *testing.T) {
	ctx := context.Background()
	fsStore, _ := NewFilesystem(t.TempDir())
	url, err := fsStore.PresignURL(ctx, "a/b.zip", SignedURLOptions{})
	if err != nil || url != "http://local.blob/a/b.zip" {
		t.Fatalf("presign: %q %v", url, err)
	}
	if _, err := fsStore.PresignURL(ctx, "a/b.zip", SignedURLOptions{Method: "PUT"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := NewMemory().PresignURL(ctx, "a", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported from memory, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg     Config
		driver  Driver
		wantErr bool
	}{
		{Config{Root: t.TempDir()}, DriverFilesystem, false},
		{Config{Driver: DriverMemory}, DriverMemory, false},
		{Config{Driver: DriverS3}, "", true},
		{Config{Driver: "ftp"}, "", true},
	}
	for _, tc := range cases {
		s, err := Open(ctx, tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.cfg.Driver)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.cfg.Driver, err)
		}
		if s.Driver() != tc.driver {
			t.Errorf("driver %s, want %s", s.Driver(), tc.driver)
		}
	}
}
