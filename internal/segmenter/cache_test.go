package segmenter_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/segmenter/internal/segmenter"
)

func TestKey(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		got := segmenter.Key("Compras", "abc", 10, 5)
		want := "Compras|900150983cd24fb0d6963f7d28e17f72|10|5"
		if got != want {
			t.Errorf("Key = %q, want %q", got, want)
		}
	})

	t.Run("prefix measured in runes", func(t *testing.T) {
		name := strings.Repeat("ñ", 50)
		got := segmenter.Key(name, "abc", 0, 5)
		prefix := strings.SplitN(got, "|", 2)[0]
		if prefix != strings.Repeat("ñ", segmenter.KeyPrefixLength) {
			t.Errorf("prefix = %q", prefix)
		}
	})

	t.Run("distinct windows", func(t *testing.T) {
		a := segmenter.Key("P", "x", 0, 5)
		b := segmenter.Key("P", "x", 5, 5)
		c := segmenter.Key("P", "y", 0, 5)
		if a == b || a == c {
			t.Error("keys should differ by start and content")
		}
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := segmenter.NewMemoryCache()

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}

	page := segmenter.Page{
		Records:  []segmenter.Record{{"id": 1, "nombre": "a"}},
		Declared: 4,
	}
	cache.Put(ctx, "k", page)

	page.Records[0]["nombre"] = "mutated"

	got, ok := cache.Get(ctx, "k")
	if !ok {
		t.Fatal("Get missed a stored key")
	}
	if got.Declared != 4 {
		t.Errorf("Declared = %d, want 4", got.Declared)
	}
	if got.Records[0]["nombre"] != "a" {
		t.Errorf("cached record changed through caller reference: %v", got.Records[0]["nombre"])
	}

	got.Records[0]["nombre"] = "mutated again"
	again, _ := cache.Get(ctx, "k")
	if again.Records[0]["nombre"] != "a" {
		t.Error("cached record changed through returned page")
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	cache := segmenter.NewMemoryCache()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			cache.Put(ctx, key, segmenter.Page{Records: []segmenter.Record{{"id": i}}})
			cache.Get(ctx, key)
		}()
	}
	wg.Wait()

	for i := range 4 {
		if _, ok := cache.Get(ctx, fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("k%d missing", i)
		}
	}
}
