package cache

import (
	"context"
	"testing"
	"time"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set_get_delete", func(t *testing.T) {
		s := NewMemoryStore()
		if err := s.Set(ctx, "PETR4", []byte("38.12"), time.Minute); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, found, err := s.Get(ctx, "PETR4")
		if err != nil || !found || string(v) != "38.12" {
			t.Fatalf("expected cached value, got %q found=%v err=%v", v, found, err)
		}
		if err := s.Delete(ctx, "PETR4"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, found, _ := s.Get(ctx, "PETR4"); found {
			t.Error("expected value to be deleted")
		}
	})

	t.Run("expiry", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return now }

		_ = s.Set(ctx, "k", []byte("v"), time.Minute)
		now = now.Add(2 * time.Minute)
		if _, found, _ := s.Get(ctx, "k"); found {
			t.Error("expected expired entry to be gone")
		}
	})

	t.Run("no_expiry", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Now()
		s.now = func() time.Time { return now }

		_ = s.Set(ctx, "k", []byte("v"), 0)
		now = now.Add(24 * time.Hour)
		if _, found, _ := s.Get(ctx, "k"); !found {
			t.Error("expected entry without ttl to persist")
		}
	})

	t.Run("returns_copy", func(t *testing.T) {
		s := NewMemoryStore()
		_ = s.Set(ctx, "k", []byte("abc"), 0)
		v, _, _ := s.Get(ctx, "k")
		v[0] = 'x'
		again, _, _ := s.Get(ctx, "k")
		if string(again) != "abc" {
			t.Errorf("stored value was mutated: %q", again)
		}
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
		wantMem bool
	}{
		{name: "default_memory", cfg: config.Config{}, wantMem: true},
		{name: "memory", cfg: config.Config{QuoteCache: "memory"}, wantMem: true},
		{name: "redis_without_addr", cfg: config.Config{QuoteCache: "redis"}, wantErr: true},
		{name: "redis", cfg: config.Config{QuoteCache: "redis", RedisAddr: "localhost:6379"}},
		{name: "unknown", cfg: config.Config{QuoteCache: "memcached"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, isMem := store.(*MemoryStore)
			if isMem != tt.wantMem {
				t.Errorf("memory store = %v, want %v", isMem, tt.wantMem)
			}
			if rs, ok := store.(*RedisStore); ok {
				_ = rs.Close()
			}
		})
	}
}
