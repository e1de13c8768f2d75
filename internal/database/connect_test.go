package database

import (
	"context"
	"strings"
	"testing"
)

func TestOpenRejectsBadConnString(t *testing.T) {
	_, err := Open(context.Background(), "host=localhost port=notaport", 1, 2)
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
	if !strings.HasPrefix(err.Error(), "parse connection string:") {
		t.Errorf("error = %q, want parse connection string prefix", err)
	}
}
