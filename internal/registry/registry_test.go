package registry

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/starship/internal/config"
	"github.com/hpungsan/starship/internal/errors"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// backends returns one Registry per implementation, each on its own root.
func backends(t *testing.T) map[string]Registry {
	t.Helper()

	sqliteReg, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { sqliteReg.Close() })

	return map[string]Registry{
		"json":   NewFileRegistry(t.TempDir()),
		"sqlite": sqliteReg,
	}
}

func TestRegistry_CRUD(t *testing.T) {
	for name, reg := range backends(t) {
		t.Run(name, func(t *testing.T) {
			exists, err := reg.Exists("widgets")
			require.NoError(t, err)
			require.False(t, exists)

			require.NoError(t, reg.Add("widgets", "w1", record{Name: "one", Count: 1}))

			exists, err = reg.Exists("widgets")
			require.NoError(t, err)
			require.True(t, exists)

			var got record
			require.NoError(t, reg.Get("widgets", "w1", &got))
			require.Equal(t, record{Name: "one", Count: 1}, got)

			err = reg.Add("widgets", "w1", record{Name: "dup"})
			require.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)

			require.NoError(t, reg.Update("widgets", "w1", record{Name: "one", Count: 2}))
			require.NoError(t, reg.Get("widgets", "w1", &got))
			require.Equal(t, 2, got.Count)

			require.NoError(t, reg.Delete("widgets", "w1"))
			err = reg.Get("widgets", "w1", &got)
			require.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
		})
	}
}

func TestRegistry_MissingKeys(t *testing.T) {
	for name, reg := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.True(t, errors.Is(reg.Update("c", "nope", record{}), errors.ErrNotFound))
			require.True(t, errors.Is(reg.Delete("c", "nope"), errors.ErrNotFound))

			entries, err := reg.GetAll("c")
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestRegistry_GetAllInsertionOrder(t *testing.T) {
	for name, reg := range backends(t) {
		t.Run(name, func(t *testing.T) {
			keys := []string{"session_b_2", "session_a_9", "session_c_1", "session_a_0"}
			for i, k := range keys {
				require.NoError(t, reg.Add("captures", k, record{Name: k, Count: i}))
			}
			// Updating must not move an entry.
			require.NoError(t, reg.Update("captures", "session_b_2", record{Name: "updated"}))

			entries, err := reg.GetAll("captures")
			require.NoError(t, err)
			require.Len(t, entries, len(keys))
			for i, k := range keys {
				require.Equal(t, k, entries[i].Key)
			}

			decoded, err := GetAllDecoded[record](reg, "captures")
			require.NoError(t, err)
			require.Equal(t, "updated", decoded[0].Name)
			require.Equal(t, 3, decoded[3].Count)
		})
	}
}

func TestRegistry_InvalidNames(t *testing.T) {
	for name, reg := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := reg.Add("../escape", "k", record{})
			require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)

			err = reg.Add("ok", "", record{})
			require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestFileRegistry_Layout(t *testing.T) {
	root := t.TempDir()
	reg := NewFileRegistry(root)

	require.NoError(t, reg.Add(FlightConfigs, "b", record{Name: "b"}))
	require.NoError(t, reg.Add(FlightConfigs, "a", record{Name: "a"}))

	data, err := os.ReadFile(reg.Path(FlightConfigs))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(reg.Path(FlightConfigs), "registry/starlog_flight_configs_registry.json"))

	// Keys stay in insertion order on disk, not sorted.
	require.Less(t, strings.Index(string(data), `"b"`), strings.Index(string(data), `"a"`))
}

func TestFileRegistry_CorruptFile(t *testing.T) {
	reg := NewFileRegistry(t.TempDir())
	require.NoError(t, os.MkdirAll(reg.Dir(), 0o755))
	require.NoError(t, os.WriteFile(reg.Path("broken"), []byte("{not json"), 0o644))

	_, err := reg.GetAll("broken")
	require.True(t, errors.Is(err, errors.ErrPersistence), "got %v", err)
}

func TestOpen_SelectsBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Root = t.TempDir()

	reg, err := Open(cfg)
	require.NoError(t, err)
	require.IsType(t, &FileRegistry{}, reg)

	cfg.RegistryBackend = config.BackendSQLite
	reg, err = Open(cfg)
	require.NoError(t, err)
	defer reg.Close()
	require.IsType(t, &SQLiteRegistry{}, reg)

	cfg.RegistryBackend = "redis"
	_, err = Open(cfg)
	require.True(t, errors.Is(err, errors.ErrConfiguration))
}
