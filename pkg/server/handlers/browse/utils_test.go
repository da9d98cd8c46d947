package browse

import (
	"testing"
)

func TestHumanizeBytes(t *testing.T) {
	tests := map[string]struct {
		input    int64
		expected string
	}{
		"zero":      {input: 0, expected: "0B"},
		"negative":  {input: -5, expected: "0B"},
		"bytes":     {input: 512, expected: "512B"},
		"small kb":  {input: 1536, expected: "1.5KB"},
		"large kb":  {input: 20 * 1024, expected: "20KB"},
		"megabytes": {input: 3 * 1024 * 1024, expected: "3.0MB"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := humanizeBytes(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestLinkFor(t *testing.T) {
	tests := map[string]struct {
		key          string
		expectedKind string
		expectedLink string
	}{
		"source": {
			key:          "data/abc/source.jpg",
			expectedKind: "source",
		},
		"output": {
			key:          "data/abc/output.jpg",
			expectedKind: "output",
			expectedLink: "/session/download",
		},
		"metadata": {
			key:          "meta/abc/verify.json",
			expectedKind: "metadata",
			expectedLink: "/session/meta/verify.json",
		},
		"unknown": {
			key:          "data/abc/notes.txt",
			expectedKind: "other",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			kind, link := linkFor(tc.key)
			if kind != tc.expectedKind || link != tc.expectedLink {
				t.Fatalf("expected %s %q, got %s %q", tc.expectedKind, tc.expectedLink, kind, link)
			}
		})
	}
}
