package payload

import (
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/hpungsan/starship/internal/errors"
)

func stepsN(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{Title: fmt.Sprintf("Step %d", i), Content: fmt.Sprintf("content %d", i)}
	}
	return steps
}

func TestBuild_DenseZeroBasedSequence(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		t.Run(fmt.Sprintf("%d steps", n), func(t *testing.T) {
			doc, err := Build(BuildInput{Domain: "HOME_go_debug", Steps: stepsN(n)})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(doc.RootFiles) != n {
				t.Fatalf("len(RootFiles) = %d, want %d", len(doc.RootFiles), n)
			}
			for i, p := range doc.RootFiles {
				if p.SequenceNumber != i {
					t.Errorf("RootFiles[%d].SequenceNumber = %d", i, p.SequenceNumber)
				}
				if p.Filename != fmt.Sprintf("step_%d", i+1) {
					t.Errorf("RootFiles[%d].Filename = %q", i, p.Filename)
				}
				if p.Title != fmt.Sprintf("Step %d", i) {
					t.Errorf("RootFiles[%d].Title = %q (order not preserved)", i, p.Title)
				}
				if p.PieceType != PieceInstruction || len(p.Dependencies) != 0 {
					t.Errorf("RootFiles[%d] = %+v", i, p)
				}
			}
			if doc.EntryPoint != "step_1" {
				t.Errorf("EntryPoint = %q, want step_1", doc.EntryPoint)
			}
			if err := doc.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestBuild_Invalid(t *testing.T) {
	if _, err := Build(BuildInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Build(no steps) error = %v", err)
	}
	_, err := Build(BuildInput{Steps: []Step{{Title: "ok"}, {Title: "  "}}})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Build(blank title) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Document {
		doc, _ := Build(BuildInput{Steps: stepsN(3)})
		return doc
	}

	tests := []struct {
		name   string
		mutate func(d *Document)
	}{
		{"gap", func(d *Document) { d.RootFiles[2].SequenceNumber = 5 }},
		{"duplicate position", func(d *Document) { d.RootFiles[1].SequenceNumber = 0 }},
		{"duplicate filename", func(d *Document) { d.RootFiles[1].Filename = "step_1" }},
		{"bad entry point", func(d *Document) { d.EntryPoint = "missing" }},
		{"forward dependency", func(d *Document) { d.RootFiles[0].Dependencies = []int{2} }},
		{"empty", func(d *Document) { d.RootFiles = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			if err := d.Validate(); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("Validate() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestValidate_OneBasedWithDependencies(t *testing.T) {
	d := &Document{
		RootFiles: []Piece{
			{SequenceNumber: 1, Filename: "01.md", Dependencies: []int{}},
			{SequenceNumber: 2, Filename: "02.md", Dependencies: []int{1}},
		},
		EntryPoint: "01.md",
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNewID(t *testing.T) {
	re := regexp.MustCompile(`^pd_[0-9a-f]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if !re.MatchString(id) {
			t.Fatalf("NewID() = %q", id)
		}
		if seen[id] {
			t.Fatalf("NewID() repeated %q", id)
		}
		seen[id] = true
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	root := t.TempDir()
	doc, err := Build(BuildInput{
		Domain:      "HOME_go_debug",
		Description: "triage flaky tests",
		Steps: []Step{
			{Title: "Reproduce", Content: "run with -count=50"},
			{Title: "Bisect", Content: "git bisect run"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	path := ArtifactPath(root, "pd_deadbeef")
	if filepath.Base(filepath.Dir(path)) != "pd_files" {
		t.Errorf("ArtifactPath() = %q", path)
	}
	if err := Write(path, doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.RootFiles) != 2 || got.RootFiles[0].Title != "Reproduce" || got.RootFiles[1].Content != "git bisect run" {
		t.Errorf("round trip mismatch: %+v", got.RootFiles)
	}
	if got.Description != doc.Description || got.EntryPoint != "step_1" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Read() error = %v, want NOT_FOUND", err)
	}
}
