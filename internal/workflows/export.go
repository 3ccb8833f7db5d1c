package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/PolarWolf314/coffer/internal/records"

	"golang.org/x/sync/errgroup"
)

// DocumentVersion is written to every export and required on import.
const DocumentVersion = "1"

// RecordStore is the part of records.Store the export and import workflows use.
type RecordStore interface {
	ActivePrincipal() (string, error)
	LoadCollection(ctx context.Context, module string) ([]records.Record, error)
	MergeCollection(ctx context.Context, module string, recs []records.Record) (records.BatchResult, error)
	ReplaceCollection(ctx context.Context, module string, recs []records.Record) (records.BatchResult, error)
}

// Document is the JSON backup format.
type Document struct {
	Version     string                      `json:"version"`
	ExportDate  time.Time                   `json:"exportDate"`
	PrincipalID string                      `json:"principalId"`
	Data        map[string][]records.Record `json:"data"`
}

// ExportOptions configures the export workflow.
type ExportOptions struct {
	// OutputPath is the path for the output document.
	// If empty, defaults to coffer-export-YYYY-MM-DD.json.
	OutputPath string

	// Modules limits the export. If empty, every known module is exported.
	Modules []string

	// Now overrides the export timestamp.
	Now func() time.Time
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	// OutputPath is the path to the written document.
	OutputPath string

	PrincipalID string

	// Counts is the number of records written per module.
	Counts map[string]int

	// TotalRecords is the sum of Counts.
	TotalRecords int
}

// Export writes every requested module of the active principal to a JSON
// document readable only by its owner. Empty modules are written as [].
//
// Returns ErrNoSession if the vault is not unlocked.
// Returns ErrValidation if a module name is invalid.
func Export(ctx context.Context, store RecordStore, opts ExportOptions) (*ExportResult, error) {
	doc, err := BuildExport(ctx, store, opts)
	if err != nil {
		return nil, err
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = fmt.Sprintf("coffer-export-%s.json", doc.ExportDate.Format("2006-01-02"))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	if err := writePrivateFile(outputPath, append(data, '\n')); err != nil {
		return nil, fmt.Errorf("writing export: %w", err)
	}

	result := &ExportResult{
		OutputPath:  outputPath,
		PrincipalID: doc.PrincipalID,
		Counts:      make(map[string]int, len(doc.Data)),
	}
	for module, collection := range doc.Data {
		result.Counts[module] = len(collection)
		result.TotalRecords += len(collection)
	}
	return result, nil
}

// BuildExport loads the requested modules concurrently and returns the
// document without writing it.
func BuildExport(ctx context.Context, store RecordStore, opts ExportOptions) (*Document, error) {
	principalID, err := store.ActivePrincipal()
	if err != nil {
		return nil, err
	}

	modules := opts.Modules
	if len(modules) == 0 {
		modules = records.KnownModules
	}
	modules = dedupe(modules)
	for _, m := range modules {
		if err := records.ValidateModule(m); err != nil {
			return nil, err
		}
	}

	collections := make([][]records.Record, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	for i, module := range modules {
		i, module := i, module
		g.Go(func() error {
			collection, err := store.LoadCollection(gctx, module)
			if err != nil {
				return err
			}
			collections[i] = collection
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	doc := &Document{
		Version:     DocumentVersion,
		ExportDate:  now().UTC(),
		PrincipalID: principalID,
		Data:        make(map[string][]records.Record, len(modules)),
	}
	for i, module := range modules {
		doc.Data[module] = collections[i]
	}
	return doc, nil
}

func dedupe(modules []string) []string {
	out := slices.Clone(modules)
	slices.Sort(out)
	return slices.Compact(out)
}

// writePrivateFile writes data to path with mode 0600, tightening the mode of
// an existing file as well.
func writePrivateFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := file.Chmod(0600); err != nil {
		file.Close()
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
