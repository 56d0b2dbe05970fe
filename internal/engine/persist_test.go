package engine

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizePrompt(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Portrait, 4K, high quality", "Portrait__4K__high_quality"},
		{"a/b\\c", "a_b_c"},
		{`say "hello"`, "say__hello"},
		{"emoji 😀 here", "emoji___here"},
		{"__edges__", "edges"},
		{"under_score-dash", "under_score-dash"},
		{"", ""},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, c := range cases {
		if got := sanitizePrompt(c.in); got != c.want {
			t.Fatalf("sanitizePrompt(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSaveSequenceNumbers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	p := newPersister(dir)
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	prompts := []string{"first", "with/slash", "emoji 😀", `"quoted"`, "plain"}
	for i, prompt := range prompts {
		path, err := p.Save(img, prompt, int64(i+1))
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		base := filepath.Base(path)
		wantPrefix := fmt.Sprintf("%05d_", i)
		if !strings.HasPrefix(base, wantPrefix) {
			t.Fatalf("expected prefix %q, got %q", wantPrefix, base)
		}
		if !strings.HasSuffix(base, fmt.Sprintf("_seed%d.png", i+1)) {
			t.Fatalf("expected seed suffix in %q", base)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if len(entries) != len(prompts) {
		t.Fatalf("expected %d files, got %d", len(prompts), len(entries))
	}
}

func TestSaveCreatesResultsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	p := newPersister(dir)
	if _, err := p.Save(image.NewRGBA(image.Rect(0, 0, 1, 1)), "x", 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("results dir not created: %v", err)
	}
}

func TestSaveNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	p := newPersister(dir)
	// Plant a file whose name collides with the next sequence slot. The
	// entry-count sequence then points at an existing name and O_EXCL must
	// refuse to clobber it.
	planted := filepath.Join(dir, "00001_x_seed1.png")
	if err := os.WriteFile(planted, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("plant: %v", err)
	}
	if _, err := p.Save(image.NewRGBA(image.Rect(0, 0, 1, 1)), "x", 1); err == nil {
		t.Fatalf("expected collision error")
	}
	b, err := os.ReadFile(planted)
	if err != nil || string(b) != "keep me" {
		t.Fatalf("planted file was modified: %q err=%v", b, err)
	}
}
