package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/overtonehq/sidechain/internal/audio"
)

// LoadDir reads every *.json sidecar in dir, decodes the audio file each one
// points at, and returns the resulting entries. Broken entries are logged
// and skipped so one bad file can't take the whole catalog down.
func LoadDir(dir string) ([]*Entry, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}

	var entries []*Entry
	for _, f := range names {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		entry, err := loadEntry(dir, path)
		if err != nil {
			log.Printf("Catalog: skipping %s: %v", f.Name(), err)
			continue
		}
		entries = append(entries, entry)
	}

	log.Printf("Catalog: loaded %d samples from %s", len(entries), dir)
	return entries, nil
}

func loadEntry(dir, path string) (*Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if entry.File == "" {
		return nil, fmt.Errorf("no audio file referenced")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Name == "" {
		entry.Name = strings.TrimSuffix(filepath.Base(entry.File), filepath.Ext(entry.File))
	}

	audioPath := entry.File
	if !filepath.IsAbs(audioPath) {
		audioPath = filepath.Join(dir, audioPath)
	}
	buf, err := audio.DecodeFile(audioPath)
	if err != nil {
		return nil, err
	}
	entry.Buffer = buf

	return &entry, nil
}
