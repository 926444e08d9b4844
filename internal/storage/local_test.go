package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalPut(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	l, err := NewLocal(root, "http://localhost:8467/files/")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("writes and returns url", func(t *testing.T) {
		url, err := l.Put(ctx, "ebooks/1/7/pt/book.epub", []byte("epub bytes"), "application/epub+zip")
		if err != nil {
			t.Fatal(err)
		}
		if url != "http://localhost:8467/files/ebooks/1/7/pt/book.epub" {
			t.Errorf("url = %q", url)
		}
		b, err := os.ReadFile(filepath.Join(root, "ebooks", "1", "7", "pt", "book.epub"))
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "epub bytes" {
			t.Errorf("content = %q", b)
		}
	})

	t.Run("overwrites existing object", func(t *testing.T) {
		if _, err := l.Put(ctx, "a.html", []byte("v1"), "text/html"); err != nil {
			t.Fatal(err)
		}
		if _, err := l.Put(ctx, "a.html", []byte("v2"), "text/html"); err != nil {
			t.Fatal(err)
		}
		b, _ := os.ReadFile(filepath.Join(root, "a.html"))
		if string(b) != "v2" {
			t.Errorf("content = %q", b)
		}
	})

	t.Run("rejects traversal", func(t *testing.T) {
		if _, err := l.Put(ctx, "../outside.txt", []byte("x"), "text/plain"); err == nil {
			t.Error("expected traversal to be rejected")
		}
	})

	t.Run("requires root", func(t *testing.T) {
		if _, err := NewLocal("", "http://x"); err == nil {
			t.Error("expected error for empty root")
		}
	})
}

func TestMockFailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	m.FailPaths = []string{"/es/"}

	if _, err := m.Put(ctx, "ebooks/1/7/pt/book.epub", []byte("ok"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Put(ctx, "ebooks/1/7/es/book.epub", []byte("no"), ""); err == nil {
		t.Error("expected injected failure")
	}
	if m.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", m.Len())
	}
	if _, ok := m.Get("ebooks/1/7/pt/book.epub"); !ok {
		t.Error("stored object missing")
	}
}
