// Package registry stores fitted models in a BoltDB file so that a later
// `tabml predict` can reuse them.
//
// Each model lives under its name in two buckets: the estimator's
// MarshalBinary payload in "models" and a JSON Entry describing how it was
// trained in "entries".
package registry

import (
	"encoding"
	"encoding/json"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

const (
	modelsBucket  = "models"  // estimator payloads
	entriesBucket = "entries" // Entry records as JSON
)

// ErrNotFound is returned when no model is stored under a name.
var ErrNotFound = errors.New("model not found")

// Entry describes a stored model and the data settings needed to rebuild the
// split it was evaluated on.
type Entry struct {
	Name      string    `json:"name"`
	Algorithm string    `json:"algorithm"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Features      []string `json:"features"`
	Target        int      `json:"target"`
	TargetMode    string   `json:"target_mode"`
	PositiveLabel string   `json:"positive_label"`
	TrainFraction float64  `json:"train_fraction"`
	Seed          int64    `json:"seed"`
	Scaler        string   `json:"scaler"`

	Metrics map[string]float64 `json:"metrics"`
}

// Store is a model registry backed by a single BoltDB file.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the registry at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open registry %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{modelsBucket, entriesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return errors.Wrapf(err, "create %s bucket", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores m and e under e.Name, replacing any previous model of that name.
func (s *Store) Save(e Entry, m encoding.BinaryMarshaler) error {
	if e.Name == "" {
		return errors.NewValidationError("name", "must not be empty", e.Name)
	}
	payload, err := m.MarshalBinary()
	if err != nil {
		return errors.Wrapf(err, "marshal model %s", e.Name)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "marshal entry %s", e.Name)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(e.Name)
		if err := tx.Bucket([]byte(modelsBucket)).Put(key, payload); err != nil {
			return err
		}
		return tx.Bucket([]byte(entriesBucket)).Put(key, meta)
	})
}

// Entry returns the metadata stored under name.
func (s *Store) Entry(name string) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(entriesBucket)).Get([]byte(name))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "%s", name)
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Load restores the model stored under name into m and returns its metadata.
func (s *Store) Load(name string, m encoding.BinaryUnmarshaler) (Entry, error) {
	e, err := s.Entry(name)
	if err != nil {
		return Entry{}, err
	}
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(modelsBucket)).Get([]byte(name))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "%s payload", name)
		}
		// v is only valid inside the transaction
		return m.UnmarshalBinary(append([]byte(nil), v...))
	})
	if err != nil {
		return Entry{}, errors.Wrapf(err, "load model %s", name)
	}
	return e, nil
}

// List returns all entries sorted by name.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(entriesBucket)).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Wrapf(err, "decode entry %s", k)
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete removes the model stored under name.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(name)
		if tx.Bucket([]byte(entriesBucket)).Get(key) == nil {
			return errors.Wrapf(ErrNotFound, "%s", name)
		}
		if err := tx.Bucket([]byte(modelsBucket)).Delete(key); err != nil {
			return err
		}
		return tx.Bucket([]byte(entriesBucket)).Delete(key)
	})
}
