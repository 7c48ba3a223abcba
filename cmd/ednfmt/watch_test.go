package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ConradIrwin/edn-go"
)

func TestIncomplete(t *testing.T) {
	for _, test := range []struct {
		input      string
		incomplete bool
	}{
		{"[1\n2", true},
		{"{:a \"multi\nline", true},
		{"#_", true},
		{"[1 2]", false},
		{"[1 }", false},
	} {
		_, err := edn.ParseAll(test.input)
		if got := incomplete(fmt.Errorf("wrapped: %w", err)); got != test.incomplete {
			t.Errorf("incomplete(%q) = %v, err %v", test.input, got, err)
		}
	}
	if incomplete(errors.New("unclosed [")) {
		t.Errorf("only parse errors can be incomplete")
	}
}

func TestWatchFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.edn")
	if err := os.WriteFile(path, []byte("{:a 1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{path}, options{Write: true})
	}()

	// The watcher may not be ready yet, so keep rewriting until it reacts.
	deadline := time.Now().Add(10 * time.Second)
	var written time.Time
	for {
		data, err := os.ReadFile(path)
		if err == nil && string(data) == "[1 2]\n" {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("file was not reformatted, got %q", data)
		}
		if time.Since(written) > 500*time.Millisecond {
			if err := os.WriteFile(path, []byte("[1   2]"), 0o644); err != nil {
				t.Fatal(err)
			}
			written = time.Now()
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchFiles did not stop after cancel")
	}
}
