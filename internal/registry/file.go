package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/storage"
)

// FileRegistry keeps one pretty-printed JSON object per collection at
// root/registry/{collection}_registry.json. Object key order on disk is
// insertion order.
type FileRegistry struct {
	root string
}

// NewFileRegistry creates a JSON-file registry under root.
func NewFileRegistry(root string) *FileRegistry {
	return &FileRegistry{root: root}
}

// Dir returns the directory holding the registry files.
func (r *FileRegistry) Dir() string {
	return filepath.Join(r.root, "registry")
}

// Path returns the file backing a collection.
func (r *FileRegistry) Path(collection string) string {
	return filepath.Join(r.Dir(), collection+"_registry.json")
}

type document = orderedmap.OrderedMap[string, json.RawMessage]

func (r *FileRegistry) load(collection string) (*document, error) {
	doc := orderedmap.New[string, json.RawMessage]()
	if _, err := storage.ReadJSON(r.Path(collection), doc); err != nil {
		return nil, errors.NewPersistence("reading "+collection, err)
	}
	return doc, nil
}

func (r *FileRegistry) save(collection string, doc *document) error {
	if err := storage.WriteJSON(r.Path(collection), doc); err != nil {
		return errors.NewPersistence("writing "+collection, err)
	}
	return nil
}

// mutate runs fn over the collection under the storage-root lock and saves it.
func (r *FileRegistry) mutate(collection string, fn func(doc *document) error) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	mu := storage.Lock(r.root)
	mu.Lock()
	defer mu.Unlock()

	doc, err := r.load(collection)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return r.save(collection, doc)
}

// Add implements Registry.
func (r *FileRegistry) Add(collection, key string, value any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	raw, err := marshalValue(collection, key, value)
	if err != nil {
		return err
	}
	return r.mutate(collection, func(doc *document) error {
		if _, exists := doc.Get(key); exists {
			return errors.NewConflict(fmt.Sprintf("key %q already exists in %s", key, collection))
		}
		doc.Set(key, raw)
		return nil
	})
}

// Update implements Registry.
func (r *FileRegistry) Update(collection, key string, value any) error {
	raw, err := marshalValue(collection, key, value)
	if err != nil {
		return err
	}
	return r.mutate(collection, func(doc *document) error {
		if _, exists := doc.Get(key); !exists {
			return errors.NewNotFound(collection, key)
		}
		doc.Set(key, raw)
		return nil
	})
}

// Delete implements Registry.
func (r *FileRegistry) Delete(collection, key string) error {
	return r.mutate(collection, func(doc *document) error {
		if _, present := doc.Delete(key); !present {
			return errors.NewNotFound(collection, key)
		}
		return nil
	})
}

// Get implements Registry.
func (r *FileRegistry) Get(collection, key string, out any) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	doc, err := r.load(collection)
	if err != nil {
		return err
	}
	raw, ok := doc.Get(key)
	if !ok {
		return errors.NewNotFound(collection, key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewPersistence("decoding "+collection+"/"+key, err)
	}
	return nil
}

// GetAll implements Registry.
func (r *FileRegistry) GetAll(collection string) ([]Entry, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	doc, err := r.load(collection)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, doc.Len())
	for pair := doc.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{Key: pair.Key, Value: pair.Value})
	}
	return entries, nil
}

// Exists implements Registry.
func (r *FileRegistry) Exists(collection string) (bool, error) {
	if err := validateCollection(collection); err != nil {
		return false, err
	}
	_, err := os.Stat(r.Path(collection))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewPersistence("checking "+collection, err)
}

// Close implements Registry. File registries hold no resources.
func (r *FileRegistry) Close() error { return nil }
