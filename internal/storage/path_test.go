package storage

import (
	"testing"
	"time"
)

func TestBuildExportPath(t *testing.T) {
	ts := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	got, err := BuildExportPath("mysql", "abc123", ts)
	if err != nil {
		t.Fatalf("BuildExportPath() error = %v", err)
	}
	want := "mysql/date=2026-08-29/export-abc123.parquet"
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestBuildExportPathRejectsBadComponents(t *testing.T) {
	ts := time.Now()
	cases := []struct {
		engine string
		id     string
	}{
		{"", "abc"},
		{"mysql", ""},
		{"../etc", "abc"},
		{"mysql", "a/b"},
	}
	for _, tc := range cases {
		if _, err := BuildExportPath(tc.engine, tc.id, ts); err == nil {
			t.Errorf("BuildExportPath(%q, %q) accepted", tc.engine, tc.id)
		}
	}
}
