package engine

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"unicode"

	"imaged/internal/common/fsutil"
)

// promptPrefixRunes bounds the sanitized prompt prefix in filenames.
const promptPrefixRunes = 50

// persister assigns collision-free filenames in the results area and writes
// artifacts there. It runs inside the serialized lane, which is what makes
// the entry-count sequence number monotonic.
type persister struct {
	dir string
}

func newPersister(dir string) *persister { return &persister{dir: dir} }

// Save writes img as PNG under a name of the form
//
//	<5-digit sequence>_<sanitized prompt prefix>_seed<seed>.png
//
// where the sequence is the current entry count of the results directory.
// The file is opened with O_EXCL: an unexpected collision fails loudly
// instead of overwriting.
func (p *persister) Save(img image.Image, prompt string, seed int64) (string, error) {
	if err := fsutil.EnsureDir(p.dir); err != nil {
		return "", fmt.Errorf("results dir: %w", err)
	}
	seq, err := fsutil.CountEntries(p.dir)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%05d_%s_seed%d.png", seq, sanitizePrompt(prompt), seed)
	path := filepath.Join(p.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return path, nil
}

// sanitizePrompt truncates the prompt to a bounded prefix and maps every
// character that is not a letter, digit, '_' or '-' to '_', then strips
// leading and trailing underscores.
func sanitizePrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > promptPrefixRunes {
		runes = runes[:promptPrefixRunes]
	}
	out := make([]rune, len(runes))
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			out[i] = r
		} else {
			out[i] = '_'
		}
	}
	// strip leading/trailing underscores
	start, end := 0, len(out)
	for start < end && out[start] == '_' {
		start++
	}
	for end > start && out[end-1] == '_' {
		end--
	}
	return string(out[start:end])
}
