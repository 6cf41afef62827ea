package course

import (
	"path/filepath"
	"sync"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/storage"
)

const (
	// StateDir is the subdirectory of the storage root holding course files.
	StateDir = "omnisanc_core"
	// StateFile holds the single course slot.
	StateFile = ".course_state"
	// HistoryFile holds the append-only course history.
	HistoryFile = ".course_history.json"
)

// Repository loads and stores the single course slot.
type Repository interface {
	// Load returns nil (not an error) if no course has been plotted.
	Load() (*Course, error)
	Store(c *Course) error
}

// History appends course history entries.
type History interface {
	Append(entry HistoryEntry) error
}

// FileRepository keeps the course in root/omnisanc_core/.course_state.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a file-backed course repository under root.
func NewFileRepository(root string) *FileRepository {
	return &FileRepository{dir: filepath.Join(root, StateDir)}
}

// Path returns the course state file.
func (r *FileRepository) Path() string {
	return filepath.Join(r.dir, StateFile)
}

// Locker returns the lock guarding the course slot of this root.
func (r *FileRepository) Locker() sync.Locker {
	return storage.Lock(r.dir)
}

// Load implements Repository.
func (r *FileRepository) Load() (*Course, error) {
	var c Course
	found, err := storage.ReadJSON(r.Path(), &c)
	if err != nil {
		return nil, errors.NewPersistence("reading course state", err)
	}
	if !found {
		return nil, nil
	}
	c.normalizeLegacy()
	return &c, nil
}

// Store implements Repository. The slot is overwritten wholesale.
func (r *FileRepository) Store(c *Course) error {
	c.LegacyProject = ""
	if err := storage.WriteJSON(r.Path(), c); err != nil {
		return errors.NewPersistence("writing course state", err)
	}
	return nil
}

// FileHistory appends to root/omnisanc_core/.course_history.json.
type FileHistory struct {
	dir string
}

// NewFileHistory creates a file-backed course history under root.
func NewFileHistory(root string) *FileHistory {
	return &FileHistory{dir: filepath.Join(root, StateDir)}
}

// Path returns the history file.
func (h *FileHistory) Path() string {
	return filepath.Join(h.dir, HistoryFile)
}

type historyDoc struct {
	Courses []HistoryEntry `json:"courses"`
}

// Append implements History.
func (h *FileHistory) Append(entry HistoryEntry) error {
	var doc historyDoc
	if _, err := storage.ReadJSON(h.Path(), &doc); err != nil {
		return err
	}
	doc.Courses = append(doc.Courses, entry)
	return storage.WriteJSON(h.Path(), doc)
}

// Entries returns every history entry in append order.
func (h *FileHistory) Entries() ([]HistoryEntry, error) {
	var doc historyDoc
	if _, err := storage.ReadJSON(h.Path(), &doc); err != nil {
		return nil, errors.NewPersistence("reading course history", err)
	}
	return doc.Courses, nil
}
