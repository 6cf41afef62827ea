package flightconfig

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/payload"
)

//go:embed defaults/*.jsonc
var defaultsFS embed.FS

// Default is a built-in flight config shipped with STARSHIP.
type Default struct {
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Description      string           `json:"description"`
	PayloadDiscovery payload.Document `json:"payload_discovery"`
}

// Defaults parses the embedded default flight configs, sorted by name.
func Defaults() ([]Default, error) {
	files, err := fs.Glob(defaultsFS, "defaults/*.jsonc")
	if err != nil {
		return nil, err
	}
	out := make([]Default, 0, len(files))
	for _, f := range files {
		data, err := defaultsFS.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		var d Default
		if err := json.Unmarshal(jsonc.ToJSON(data), &d); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}
		if err := d.PayloadDiscovery.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DefaultsDir is where default PayloadDiscovery files are written.
func DefaultsDir(root string) string {
	return filepath.Join(root, "default_flight_configs")
}

// PopulateOutput reports what PopulateDefaults did.
type PopulateOutput struct {
	Populated []string `json:"populated"`
	Skipped   []string `json:"skipped"`
}

// Render formats the populate status.
func (o *PopulateOutput) Render() string {
	var parts []string
	if len(o.Populated) > 0 {
		parts = append(parts, fmt.Sprintf("✅ Auto-populated %d flight configs: %s", len(o.Populated), strings.Join(o.Populated, ", ")))
	}
	if len(o.Skipped) > 0 {
		parts = append(parts, fmt.Sprintf("⏭️ Skipped %d existing configs: %s", len(o.Skipped), strings.Join(o.Skipped, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "❌ No flight configs to populate")
	}
	return strings.Join(parts, "\n")
}

// PopulateDefaults registers every default flight config that is not yet
// registered by name. Each one gets its PayloadDiscovery written to
// root/default_flight_configs/{name}_pd.json.
func (b *LocalBridge) PopulateDefaults(root string) (*PopulateOutput, error) {
	defaults, err := Defaults()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	out := &PopulateOutput{Populated: []string{}, Skipped: []string{}}
	for _, d := range defaults {
		existing, err := b.Find(d.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			out.Skipped = append(out.Skipped, d.Name)
			continue
		}

		pdPath := filepath.Join(DefaultsDir(root), d.Name+"_pd.json")
		doc := d.PayloadDiscovery
		if err := payload.Write(pdPath, &doc); err != nil {
			return nil, err
		}
		if _, err := b.Add(SystemDefaultPath, d.Name, ConfigData{
			Description:      d.Description,
			WorkLoopSubchain: pdPath,
		}, d.Category); err != nil {
			return nil, err
		}
		out.Populated = append(out.Populated, d.Name)
	}
	return out, nil
}
