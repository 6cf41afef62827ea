package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")

	in := map[string]any{"course_plotted": true, "projects": []string{"/a"}}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "\n  \"course_plotted\": true") {
		t.Errorf("expected pretty-printed JSON, got %s", data)
	}

	var out struct {
		CoursePlotted bool     `json:"course_plotted"`
		Projects      []string `json:"projects"`
	}
	found, err := ReadJSON(path, &out)
	if err != nil || !found {
		t.Fatalf("ReadJSON() found=%v err=%v", found, err)
	}
	if !out.CoursePlotted || len(out.Projects) != 1 || out.Projects[0] != "/a" {
		t.Errorf("ReadJSON() = %+v", out)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestReadJSON_Missing(t *testing.T) {
	var v map[string]any
	found, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
}

func TestReadJSON_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if _, err := ReadJSON(path, &v); err == nil {
		t.Error("ReadJSON() expected parse error")
	}
}

func TestLock_SameRootSameMutex(t *testing.T) {
	root := t.TempDir()
	if Lock(root) != Lock(root+"/") {
		t.Error("Lock() returned different mutexes for the same root")
	}
	if Lock(root) == Lock(t.TempDir()) {
		t.Error("Lock() shared a mutex across roots")
	}
}
