package db

import (
	"context"
	"testing"

	"github.com/localloop/localloop-backend/pkg/config"
)

func TestNew_SQLiteInMemory(t *testing.T) {
	cfg := config.DBConfig{
		Driver: "sqlite",
		DSN:    "file::memory:?cache=shared",
	}

	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite client: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("close returned error: %v", err)
		}
	})

	if client.DB() == nil {
		t.Fatal("expected gorm handle")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNew_PostgresRequiresDSN(t *testing.T) {
	cfg := config.DBConfig{Driver: "postgres"}

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected missing DSN to error for postgres driver")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.DBConfig{Driver: "oracle", DSN: "whatever"}

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected unknown driver to error")
	}
}
