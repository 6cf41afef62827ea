// Package registry is the key-value document store behind every STARSHIP
// collection (knowledge captures, PayloadDiscovery documents, flight
// configs, missions, sessions).
//
// A collection maps opaque string keys to JSON values. Iteration order is
// insertion order on every backend, so callers can rely on GetAll returning
// entries in the order they were added.
package registry

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/hpungsan/starship/internal/config"
	"github.com/hpungsan/starship/internal/errors"
)

// Well-known collections.
const (
	SessionKnowledge = "starport_session_knowledge"
	PDRegistry       = "starport_pd_registry"
	FlightConfigs    = "starlog_flight_configs"
	Missions         = "starlog_missions"
	Sessions         = "starlog_sessions"
)

// Entry is one key/value pair of a collection.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Decode unmarshals the entry value into v.
func (e Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Value, v); err != nil {
		return fmt.Errorf("decoding %s: %w", e.Key, err)
	}
	return nil
}

// Registry is a named-collection key-value store.
type Registry interface {
	// Add stores value under key. Fails with CONFLICT if the key exists.
	Add(collection, key string, value any) error
	// Update replaces the value under key. Fails with NOT_FOUND if missing.
	Update(collection, key string, value any) error
	// Get decodes the value under key into out. Fails with NOT_FOUND if missing.
	Get(collection, key string, out any) error
	// GetAll returns every entry in insertion order.
	GetAll(collection string) ([]Entry, error)
	// Delete removes key. Fails with NOT_FOUND if missing.
	Delete(collection, key string) error
	// Exists reports whether the collection has ever been written.
	Exists(collection string) (bool, error)
	Close() error
}

// collectionRegex bounds collection names; they become file names.
var collectionRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

func validateCollection(collection string) error {
	if !collectionRegex.MatchString(collection) {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid collection name %q", collection))
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.NewInvalidRequest("registry key must not be empty")
	}
	return nil
}

func marshalValue(collection, key string, value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("marshaling %s/%s: %w", collection, key, err))
	}
	return data, nil
}

// Open returns the registry backend selected by cfg.
func Open(cfg *config.Config) (Registry, error) {
	switch cfg.RegistryBackend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.Root)
	case config.BackendJSON, "":
		return NewFileRegistry(cfg.Root), nil
	default:
		return nil, errors.NewConfiguration(fmt.Sprintf("unknown registry backend %q", cfg.RegistryBackend))
	}
}

// GetAllDecoded decodes every entry of a collection into T, keeping order.
func GetAllDecoded[T any](r Registry, collection string) ([]T, error) {
	entries, err := r.GetAll(collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := e.Decode(&v); err != nil {
			return nil, errors.NewPersistence("reading "+collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}
