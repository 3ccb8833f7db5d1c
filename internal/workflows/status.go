package workflows

import (
	"context"
	"slices"
	"time"

	"github.com/PolarWolf314/coffer/internal/principals"
	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/session"
)

// ModuleStatus holds the record count of one module.
type ModuleStatus struct {
	Module  string
	Records int

	// Modified is the latest modification time in the module, zero when empty.
	Modified time.Time
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	Principal principals.Principal
	State     session.State
	Deadline  time.Time
	Backend   string
	Encrypted bool

	// Modules contains every known module plus any extra ones requested,
	// sorted by name.
	Modules []ModuleStatus

	// Total is the number of records across Modules.
	Total int
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// Extra lists custom modules to report alongside the known ones.
	Extra []string
}

// Status reports the session and the size of each module for the unlocked
// principal.
//
// Returns ErrNoSession if the vault is not unlocked.
func Status(ctx context.Context, v *Vault, opts StatusOptions) (*StatusResult, error) {
	sess, err := v.Guard.Active()
	if err != nil {
		return nil, err
	}
	p, err := v.Registry.Get(ctx, sess.PrincipalID)
	if err != nil {
		return nil, err
	}

	modules := dedupe(append(slices.Clone(records.KnownModules), opts.Extra...))

	result := &StatusResult{
		Principal: p,
		State:     v.Guard.State(),
		Deadline:  sess.Deadline,
		Backend:   v.Config.Storage.Backend,
		Encrypted: v.Store.Encrypted(),
		Modules:   make([]ModuleStatus, 0, len(modules)),
	}

	for _, module := range modules {
		collection, err := v.Store.LoadCollection(ctx, module)
		if err != nil {
			return nil, err
		}
		ms := ModuleStatus{Module: module, Records: len(collection)}
		for _, rec := range collection {
			if rec.Modified.After(ms.Modified) {
				ms.Modified = rec.Modified
			}
		}
		result.Modules = append(result.Modules, ms)
		result.Total += ms.Records
	}

	return result, nil
}
