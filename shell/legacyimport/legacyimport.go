// Package legacyimport reads JSON dumps of the legacy library API and turns them into a store.Snapshot.
package legacyimport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Jehd061990/liber/apiadapter"
	"github.com/Jehd061990/liber/store"
)

// ErrNoFiles is returned when no dump file was named.
var ErrNoFiles = errors.New("at least one dump file must be given")

// Files names one dump file per record kind, relative to the file system passed to LoadSnapshot.
// Empty names are skipped.
type Files struct {
	Books        string
	Readers      string
	Loans        string
	Fines        string
	Reservations string
}

func (f Files) empty() bool {
	return f.Books == "" && f.Readers == "" && f.Loans == "" && f.Fines == "" && f.Reservations == ""
}

// Importer writes a snapshot. Both the Postgres engine and the in-memory store implement it.
type Importer interface {
	ImportSnapshot(ctx context.Context, snapshot store.Snapshot) (store.ImportResult, error)
}

// LoadSnapshot decodes every named file. A failing record aborts the load; nothing is half imported.
func LoadSnapshot(fsys fs.FS, files Files) (store.Snapshot, error) {
	if files.empty() {
		return store.Snapshot{}, ErrNoFiles
	}

	var (
		snapshot store.Snapshot
		err      error
	)

	if snapshot.Books, err = load(fsys, files.Books, apiadapter.DecodeBook); err != nil {
		return store.Snapshot{}, err
	}

	if snapshot.Readers, err = load(fsys, files.Readers, apiadapter.DecodeReader); err != nil {
		return store.Snapshot{}, err
	}

	if snapshot.Loans, err = load(fsys, files.Loans, apiadapter.DecodeLoan); err != nil {
		return store.Snapshot{}, err
	}

	if snapshot.Fines, err = load(fsys, files.Fines, apiadapter.DecodeFine); err != nil {
		return store.Snapshot{}, err
	}

	if snapshot.Reservations, err = load(fsys, files.Reservations, apiadapter.DecodeReservation); err != nil {
		return store.Snapshot{}, err
	}

	return snapshot, nil
}

// Run loads the snapshot and hands it to the importer.
func Run(ctx context.Context, importer Importer, fsys fs.FS, files Files) (store.ImportResult, error) {
	snapshot, err := LoadSnapshot(fsys, files)
	if err != nil {
		return store.ImportResult{}, err
	}

	return importer.ImportSnapshot(ctx, snapshot)
}

func load[T any](fsys fs.FS, name string, decode func([]byte) (T, error)) ([]T, error) {
	if name == "" {
		return nil, nil
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	records, err := apiadapter.DecodeAll(data, decode)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	return records, nil
}
