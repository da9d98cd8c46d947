package database

import (
	"context"
	"strings"
	"testing"
)

func TestNewTxnWithSchemaRejectsNames(t *testing.T) {
	testCases := map[string]string{
		"empty":     "",
		"quote":     "exiflab'; DROP TABLE sessions; --",
		"uppercase": "ExifLab",
		"dotted":    "public.sessions",
	}

	for name, schema := range testCases {
		t.Run(name, func(t *testing.T) {
			// the name is checked before the database is touched
			_, err := NewTxnWithSchema(context.Background(), nil, schema)
			if err == nil || !strings.Contains(err.Error(), "invalid schema name") {
				t.Fatalf("expected invalid schema name, got %v", err)
			}
		})
	}
}
