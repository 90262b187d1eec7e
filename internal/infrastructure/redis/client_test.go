package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	t.Run("connects and pings", func(t *testing.T) {
		s := miniredis.RunT(t)

		client, err := NewClient(context.Background(), fmt.Sprintf("redis://%s", s.Addr()))
		if err != nil {
			t.Fatalf("expected client, got error: %v", err)
		}
		defer client.Close()

		if err := client.Ping(context.Background()).Err(); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
	})

	t.Run("rejects malformed URL", func(t *testing.T) {
		if _, err := NewClient(context.Background(), "://bad-url"); err == nil {
			t.Fatalf("expected error for invalid URL")
		}
	})

	t.Run("fails when server is down", func(t *testing.T) {
		s := miniredis.RunT(t)
		url := fmt.Sprintf("redis://%s", s.Addr())
		s.Close()

		if _, err := NewClient(context.Background(), url); err == nil {
			t.Fatalf("expected ping error when server is down")
		}
	})
}
