package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/records"
)

// ImportMode represents the import strategy.
type ImportMode int

const (
	// ImportModeMerge replays records on top of the existing collections.
	// Records whose id already exists are updated in place.
	ImportModeMerge ImportMode = iota
	// ImportModeReplace empties each imported module before replaying.
	ImportModeReplace
)

// String returns a string representation of ImportMode.
func (m ImportMode) String() string {
	switch m {
	case ImportModeMerge:
		return "merge"
	case ImportModeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ImportOptions configures the import workflow.
type ImportOptions struct {
	// ArchivePath is the path to the export document. Ignored when Data is set.
	ArchivePath string

	// Data is an already-read export document.
	Data []byte

	// Mode is the import strategy (merge or replace).
	Mode ImportMode

	// DryRun counts what would change without writing.
	DryRun bool
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	// Imported is the number of records replayed per module.
	Imported map[string]int

	// Updated is the count of records that replaced an existing record with the same id.
	Updated int

	// Reassigned is the count of records whose id was unknown and received a fresh one.
	Reassigned int

	// Removed is the count of existing records deleted in replace mode.
	Removed int

	// TotalRecords is the number of records in the document.
	TotalRecords int

	// SourcePrincipal is the principal the document was exported from.
	SourcePrincipal string

	DryRun bool
	Mode   ImportMode
}

// ImportPreCheckResult describes an export document before it is imported.
type ImportPreCheckResult struct {
	Document *Document

	// Counts is the number of records per module in the document.
	Counts map[string]int

	TotalRecords int
}

// ImportPreCheck reads and validates the document at archivePath.
//
// Returns ErrFileNotFound if the document doesn't exist.
// Returns ErrInvalidArchive if the document is malformed.
func ImportPreCheck(ctx context.Context, archivePath string) (*ImportPreCheckResult, error) {
	data, err := readArchive(archivePath)
	if err != nil {
		return nil, err
	}

	doc, err := ParseExport(data)
	if err != nil {
		return nil, err
	}

	result := &ImportPreCheckResult{
		Document: doc,
		Counts:   make(map[string]int, len(doc.Data)),
	}
	for module, collection := range doc.Data {
		result.Counts[module] = len(collection)
		result.TotalRecords += len(collection)
	}
	return result, nil
}

// ParseExport decodes and validates an export document. Unknown top-level
// fields, a missing version or data section, an unsupported version and
// invalid module names are all rejected with ErrInvalidArchive.
func ParseExport(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrInvalidArchive, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", cerrors.ErrInvalidArchive)
	}

	if doc.Version == "" {
		return nil, fmt.Errorf("%w: missing version", cerrors.ErrInvalidArchive)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", cerrors.ErrInvalidArchive, doc.Version)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("%w: missing data", cerrors.ErrInvalidArchive)
	}
	for module := range doc.Data {
		if err := records.ValidateModule(module); err != nil {
			return nil, fmt.Errorf("%w: %v", cerrors.ErrInvalidArchive, err)
		}
	}
	return &doc, nil
}

// Import replays an export document into the active principal's vault.
// Every record goes through SaveRecord, so unknown ids are reassigned.
//
// Returns ErrFileNotFound if the document doesn't exist.
// Returns ErrInvalidArchive if the document is malformed.
// Returns ErrNoSession if the vault is not unlocked.
func Import(ctx context.Context, store RecordStore, opts ImportOptions) (*ImportResult, error) {
	data := opts.Data
	if data == nil {
		var err error
		data, err = readArchive(opts.ArchivePath)
		if err != nil {
			return nil, err
		}
	}

	doc, err := ParseExport(data)
	if err != nil {
		return nil, err
	}
	if _, err := store.ActivePrincipal(); err != nil {
		return nil, err
	}

	result := &ImportResult{
		Imported:        make(map[string]int, len(doc.Data)),
		SourcePrincipal: doc.PrincipalID,
		DryRun:          opts.DryRun,
		Mode:            opts.Mode,
	}

	modules := make([]string, 0, len(doc.Data))
	for module := range doc.Data {
		modules = append(modules, module)
	}
	slices.Sort(modules)

	for _, module := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := importModule(ctx, store, module, doc.Data[module], opts, result); err != nil {
			return nil, fmt.Errorf("importing %s: %w", module, err)
		}
	}
	return result, nil
}

// importModule writes one module in a single batch, so a failure leaves the
// module as it was.
func importModule(ctx context.Context, store RecordStore, module string, incoming []records.Record, opts ImportOptions, result *ImportResult) error {
	if opts.DryRun {
		return previewModule(ctx, store, module, incoming, opts, result)
	}

	var batch records.BatchResult
	var err error
	if opts.Mode == ImportModeReplace {
		batch, err = store.ReplaceCollection(ctx, module, incoming)
	} else {
		batch, err = store.MergeCollection(ctx, module, incoming)
	}
	if err != nil {
		return err
	}

	result.TotalRecords += len(incoming)
	result.Imported[module] += len(incoming)
	result.Updated += batch.Updated
	result.Reassigned += batch.Reassigned
	result.Removed += batch.Removed
	return nil
}

// previewModule counts what importModule would do without writing.
func previewModule(ctx context.Context, store RecordStore, module string, incoming []records.Record, opts ImportOptions, result *ImportResult) error {
	existing, err := store.LoadCollection(ctx, module)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(existing))
	if opts.Mode == ImportModeReplace {
		result.Removed += len(existing)
	} else {
		for _, rec := range existing {
			known[rec.ID] = true
		}
	}

	result.TotalRecords += len(incoming)
	result.Imported[module] += len(incoming)
	for _, rec := range incoming {
		switch {
		case rec.ID == "":
		case known[rec.ID]:
			result.Updated++
		default:
			result.Reassigned++
		}
	}
	return nil
}

func readArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", cerrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	return data, nil
}
