package main

import (
	"errors"
	"testing"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

func TestGenerateFlagsPeriod(t *testing.T) {
	cases := []struct {
		name       string
		flags      generateFlags
		wantPrefix string
		wantErr    error
	}{
		{"month", generateFlags{month: "2025-08"}, "2025_08", nil},
		{"year", generateFlags{year: 2024}, "2024_full_year", nil},
		{"custom", generateFlags{start: "2025-01-01", end: "2025-03-31"}, "2025-01-01_to_2025-03-31", nil},
		{"bad month", generateFlags{month: "08/2025"}, "", core.ErrInvalidPeriod},
		{"year out of range", generateFlags{year: 2040}, "", core.ErrInvalidPeriod},
		{"custom reversed", generateFlags{start: "2025-03-31", end: "2025-01-01"}, "", core.ErrInvalidPeriod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := tc.flags.period()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Prefix != tc.wantPrefix {
				t.Errorf("expected prefix %s, got %s", tc.wantPrefix, p.Prefix)
			}
		})
	}

	if _, err := (generateFlags{}).period(); err == nil {
		t.Error("expected error without a period flag")
	}
}
