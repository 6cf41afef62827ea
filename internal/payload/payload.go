// Package payload models PayloadDiscovery documents: an ordered sequence of
// titled content steps with a designated entry step. These documents are
// the work_loop_subchain behind every flight config.
package payload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/storage"
)

// PieceInstruction is the only piece type produced by knowledge capture.
const PieceInstruction = "instruction"

// DefaultVersion is stamped on generated documents.
const DefaultVersion = "1.0.0"

// Piece is one step of a document.
type Piece struct {
	SequenceNumber int    `json:"sequence_number"`
	Filename       string `json:"filename"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	PieceType      string `json:"piece_type"`
	Dependencies   []int  `json:"dependencies"`
}

// Document is a PayloadDiscovery document.
type Document struct {
	Domain      string         `json:"domain"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Directories map[string]any `json:"directories"`
	RootFiles   []Piece        `json:"root_files"`
	EntryPoint  string         `json:"entry_point"`
}

// Step is caller input: a titled block of content.
type Step struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BuildInput describes a document generated from captured steps.
type BuildInput struct {
	Domain      string
	Description string
	Steps       []Step
}

// StepFilename returns the generated filename for a zero-based position.
func StepFilename(position int) string {
	return fmt.Sprintf("step_%d", position+1)
}

// Build turns ordered steps into a document. Step i lands at sequence
// number i, and the entry point is the first step.
func Build(input BuildInput) (*Document, error) {
	if len(input.Steps) == 0 {
		return nil, errors.NewInvalidRequest("at least one step is required")
	}

	pieces := make([]Piece, len(input.Steps))
	for i, s := range input.Steps {
		if strings.TrimSpace(s.Title) == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("step %d: title is required", i+1))
		}
		pieces[i] = Piece{
			SequenceNumber: i,
			Filename:       StepFilename(i),
			Title:          s.Title,
			Content:        s.Content,
			PieceType:      PieceInstruction,
			Dependencies:   []int{},
		}
	}

	doc := &Document{
		Domain:      input.Domain,
		Version:     DefaultVersion,
		Description: input.Description,
		Directories: map[string]any{},
		RootFiles:   pieces,
		EntryPoint:  pieces[0].Filename,
	}
	return doc, nil
}

// Validate checks the structural invariants: sequence numbers form a dense
// run in declaration order starting at the first piece's number, no two
// pieces share a position or filename, and the entry point names a piece.
// Hand-written documents may start at 1, generated ones start at 0.
func (d *Document) Validate() error {
	if len(d.RootFiles) == 0 {
		return errors.NewInvalidRequest("payload discovery has no steps")
	}
	start := d.RootFiles[0].SequenceNumber
	if start != 0 && start != 1 {
		return errors.NewInvalidRequest(fmt.Sprintf("first sequence_number must be 0 or 1, got %d", start))
	}

	filenames := make(map[string]bool, len(d.RootFiles))
	for i, p := range d.RootFiles {
		if p.SequenceNumber != start+i {
			return errors.NewInvalidRequest(fmt.Sprintf(
				"sequence_number %d at position %d breaks the sequence (want %d)", p.SequenceNumber, i, start+i))
		}
		if p.Filename == "" {
			return errors.NewInvalidRequest(fmt.Sprintf("step %d has no filename", p.SequenceNumber))
		}
		if filenames[p.Filename] {
			return errors.NewInvalidRequest(fmt.Sprintf("duplicate filename %q", p.Filename))
		}
		filenames[p.Filename] = true
		for _, dep := range p.Dependencies {
			if dep >= p.SequenceNumber || dep < start {
				return errors.NewInvalidRequest(fmt.Sprintf(
					"step %d depends on %d, which is not an earlier step", p.SequenceNumber, dep))
			}
		}
	}

	if !filenames[d.EntryPoint] {
		return errors.NewInvalidRequest(fmt.Sprintf("entry_point %q does not name a step", d.EntryPoint))
	}
	return nil
}

// NewID returns a fresh document id: "pd_" followed by 8 hex chars.
func NewID() string {
	return "pd_" + ShortHex()
}

// ShortHex returns 8 random lowercase hex characters.
func ShortHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ArtifactPath returns where a captured document is written.
func ArtifactPath(root, id string) string {
	return filepath.Join(root, "starport_knowledge", "pd_files", id+".json")
}

// Write stores the document at path as pretty-printed JSON.
func Write(path string, d *Document) error {
	if err := storage.WriteJSON(path, d); err != nil {
		return errors.NewPersistence("writing payload discovery", err)
	}
	return nil
}

// Read loads a document from path.
func Read(path string) (*Document, error) {
	var d Document
	found, err := storage.ReadJSON(path, &d)
	if err != nil {
		return nil, errors.NewPersistence("reading payload discovery", err)
	}
	if !found {
		return nil, errors.NewNotFound("payload discovery", path)
	}
	return &d, nil
}
