package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/truelectro/image-resampler/internal/models"
)

func finishedFile(id, filename string, data []byte) *models.SourceFile {
	return &models.SourceFile{
		ID:     id,
		Status: models.StatusFinished,
		Result: &models.Result{
			Data:     data,
			Size:     int64(len(data)),
			Filename: filename,
		},
	}
}

func readArchive(t *testing.T, buf *bytes.Buffer) map[string][]byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries
}

func TestBuild_OneEntryPerFinishedFile(t *testing.T) {
	files := []*models.SourceFile{
		finishedFile("a", "a.jpg", []byte("aaa")),
		{ID: "b", Status: models.StatusFailed},
		{ID: "c", Status: models.StatusPending},
		finishedFile("d", "d.jpg", []byte("ddd")),
	}

	buf := new(bytes.Buffer)
	count, err := Build(buf, files)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 entries, got %d", count)
	}

	entries := readArchive(t, buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 archive entries, got %d", len(entries))
	}
	if !bytes.Equal(entries["a.jpg"], []byte("aaa")) {
		t.Errorf("Entry a.jpg has wrong payload: %q", entries["a.jpg"])
	}
	if !bytes.Equal(entries["d.jpg"], []byte("ddd")) {
		t.Errorf("Entry d.jpg has wrong payload: %q", entries["d.jpg"])
	}
}

func TestBuild_DuplicateNamesDisambiguated(t *testing.T) {
	files := []*models.SourceFile{
		finishedFile("11111111-aaaa", "photo.png", []byte("first")),
		finishedFile("22222222-bbbb", "photo.png", []byte("second")),
	}

	buf := new(bytes.Buffer)
	count, err := Build(buf, files)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 entries, got %d", count)
	}

	entries := readArchive(t, buf)
	if !bytes.Equal(entries["photo.png"], []byte("first")) {
		t.Errorf("First entry should keep its name, got entries %v", keys(entries))
	}
	if !bytes.Equal(entries["photo-22222222.png"], []byte("second")) {
		t.Errorf("Second entry should carry an ID suffix, got entries %v", keys(entries))
	}
}

func TestBuild_EmptyBatch(t *testing.T) {
	buf := new(bytes.Buffer)
	count, err := Build(buf, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 entries, got %d", count)
	}

	entries := readArchive(t, buf)
	if len(entries) != 0 {
		t.Errorf("Expected empty archive, got %d entries", len(entries))
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
