package archive

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/truelectro/image-resampler/internal/models"
)

// Build writes a zip archive with one entry per finished file, in file
// insertion order, and returns the number of entries written. Files that
// are not finished are skipped. When two results derive the same output
// name, later entries get a short ID suffix so no entry is silently lost.
func Build(w io.Writer, files []*models.SourceFile) (int, error) {
	zw := zip.NewWriter(w)

	seen := make(map[string]bool)
	count := 0

	for _, f := range files {
		if f.Status != models.StatusFinished || f.Result == nil {
			continue
		}

		name := f.Result.Filename
		if seen[name] {
			name = uniqueName(name, f.ID)
		}
		seen[name] = true

		entry, err := zw.Create(name)
		if err != nil {
			return count, fmt.Errorf("create archive entry %q: %w", name, err)
		}
		if _, err := entry.Write(f.Result.Data); err != nil {
			return count, fmt.Errorf("write archive entry %q: %w", name, err)
		}
		count++
	}

	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("finalize archive: %w", err)
	}
	return count, nil
}

func uniqueName(name, id string) string {
	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}

	ext := ""
	base := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			base, ext = name[:i], name[i:]
			break
		}
	}
	return base + "-" + suffix + ext
}
