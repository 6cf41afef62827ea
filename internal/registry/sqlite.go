package registry

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/hpungsan/starship/internal/db"
	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/storage"
)

// SQLiteRegistry stores all collections in root/registry/registry.db.
type SQLiteRegistry struct {
	root string
	db   *sql.DB
}

// OpenSQLite initializes (or migrates) the registry database under root.
func OpenSQLite(root string) (*SQLiteRegistry, error) {
	database, err := db.Init(filepath.Join(root, "registry"))
	if err != nil {
		return nil, errors.NewPersistence("opening registry database", err)
	}
	return &SQLiteRegistry{root: root, db: database}, nil
}

// locked serializes writes per storage root, matching the file backend.
func (r *SQLiteRegistry) locked(fn func() error) error {
	mu := storage.Lock(r.root)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Add implements Registry.
func (r *SQLiteRegistry) Add(collection, key string, value any) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	raw, err := marshalValue(collection, key, value)
	if err != nil {
		return err
	}
	return r.locked(func() error {
		if err := db.Insert(r.db, collection, key, string(raw)); err != nil {
			if stderrors.Is(err, db.ErrUniqueConstraint) {
				return errors.NewConflict(fmt.Sprintf("key %q already exists in %s", key, collection))
			}
			return errors.NewPersistence("writing "+collection, err)
		}
		return nil
	})
}

// Update implements Registry.
func (r *SQLiteRegistry) Update(collection, key string, value any) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	raw, err := marshalValue(collection, key, value)
	if err != nil {
		return err
	}
	return r.locked(func() error {
		return mapRowErr(collection, key, db.UpdateValue(r.db, collection, key, string(raw)))
	})
}

// Delete implements Registry.
func (r *SQLiteRegistry) Delete(collection, key string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	return r.locked(func() error {
		return mapRowErr(collection, key, db.DeleteEntry(r.db, collection, key))
	})
}

// Get implements Registry.
func (r *SQLiteRegistry) Get(collection, key string, out any) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	row, err := db.GetEntry(r.db, collection, key)
	if err != nil {
		return mapRowErr(collection, key, err)
	}
	return errors.Wrap("decoding "+collection, Entry{Key: row.Key, Value: []byte(row.Value)}.Decode(out))
}

// GetAll implements Registry.
func (r *SQLiteRegistry) GetAll(collection string) ([]Entry, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	rows, err := db.ListEntries(r.db, collection)
	if err != nil {
		return nil, errors.NewPersistence("reading "+collection, err)
	}
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{Key: row.Key, Value: []byte(row.Value)}
	}
	return entries, nil
}

// Exists implements Registry. A collection exists once it holds an entry.
func (r *SQLiteRegistry) Exists(collection string) (bool, error) {
	if err := validateCollection(collection); err != nil {
		return false, err
	}
	n, err := db.CountEntries(r.db, collection)
	if err != nil {
		return false, errors.NewPersistence("checking "+collection, err)
	}
	return n > 0, nil
}

// Close implements Registry.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func mapRowErr(collection, key string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, db.ErrNoRows) {
		return errors.NewNotFound(collection, key)
	}
	return errors.NewPersistence(collection+"/"+key, err)
}
