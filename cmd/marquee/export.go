package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"marquee/internal/display"
	"marquee/internal/enrichment"
	"marquee/internal/fileutil"
	"marquee/internal/textutil"
)

var posterExtensions = []struct {
	contentType string
	ext         string
}{
	{contentType: "image/jpeg", ext: ".jpg"},
	{contentType: "image/png", ext: ".png"},
	{contentType: "image/webp", ext: ".webp"},
	{contentType: "image/gif", ext: ".gif"},
}

func posterExtension(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	for _, entry := range posterExtensions {
		if entry.contentType == contentType {
			return entry.ext
		}
	}
	return ".img"
}

func posterFileName(entity enrichment.EnrichedEntity, contentType string) string {
	name := textutil.SanitizeFileName(fmt.Sprintf("%s (%s)", entity.Title, entity.YearLabel()))
	if name == "" {
		name = fmt.Sprintf("movie-%d", entity.ID)
	}
	return name + posterExtension(contentType)
}

type posterOpener interface {
	Poster(ref display.Ref) ([]byte, string, bool)
}

// exportPosters writes every resolved poster into dir and returns the file
// written per entity id.
func exportPosters(dir string, opener posterOpener, entities []enrichment.EnrichedEntity) (map[int]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create posters directory: %w", err)
	}
	written := make(map[int]string)
	for _, entity := range entities {
		data, contentType, ok := opener.Poster(entity.PosterRef)
		if !ok {
			continue
		}
		path := filepath.Join(dir, posterFileName(entity, contentType))
		if _, err := fileutil.SyncFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("export poster: %w", err)
		}
		written[entity.ID] = path
	}
	return written, nil
}
