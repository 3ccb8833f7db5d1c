package records

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/session"
	"github.com/PolarWolf314/coffer/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Module names used by the vault.
const (
	ModuleNotes     = "notes"
	ModuleBanking   = "banking"
	ModulePasswords = "passwords"
	ModuleDocuments = "documents"
	ModuleCreative  = "creative"
	ModuleTodos     = "todos"
	ModuleFolders   = "folders"
	ModuleCards     = "cards"
)

// PrimaryModules are the modules counted by ComputeStats.
var PrimaryModules = []string{
	ModuleNotes,
	ModuleBanking,
	ModulePasswords,
	ModuleDocuments,
	ModuleCreative,
	ModuleTodos,
}

// KnownModules are every module the vault ships with.
var KnownModules = append(slices.Clone(PrimaryModules), ModuleFolders, ModuleCards)

var moduleNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// ValidateModule checks that name can be used as a module collection.
func ValidateModule(name string) error {
	if !moduleNameRegex.MatchString(name) {
		return fmt.Errorf("%w: invalid module name %q", cerrors.ErrValidation, name)
	}
	return nil
}

// Sessions is the part of session.Guard the store depends on.
type Sessions interface {
	Active() (session.Session, error)
	WithKey(fn func(key *crypto.Key) error) error
}

// Options configures a Store.
type Options struct {
	// Encrypt seals every collection with the session key before it is
	// written to the backend.
	Encrypt bool

	Now    func() time.Time
	Logger *zap.Logger
}

// Store manages module collections for the principal of the active session.
type Store struct {
	backend  storage.Backend
	sessions Sessions
	encrypt  bool
	now      func() time.Time
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore returns a Store persisting through backend.
func NewStore(backend storage.Backend, sessions Sessions, opts Options) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: record store needs a backend", cerrors.ErrInvalidConfig)
	}
	if sessions == nil {
		return nil, fmt.Errorf("%w: record store needs a session source", cerrors.ErrInvalidConfig)
	}

	s := &Store{
		backend:  backend,
		sessions: sessions,
		encrypt:  opts.Encrypt,
		now:      opts.Now,
		logger:   opts.Logger,
		locks:    make(map[string]*sync.Mutex),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Encrypted reports whether collections are sealed at rest.
func (s *Store) Encrypted() bool {
	return s.encrypt
}

// ActivePrincipal returns the principal of the unlocked session.
func (s *Store) ActivePrincipal() (string, error) {
	sess, err := s.sessions.Active()
	if err != nil {
		return "", err
	}
	return sess.PrincipalID, nil
}

func (s *Store) lockFor(principalID, module string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := principalID + "\x00" + module
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// begin validates the module and returns the active principal.
func (s *Store) begin(module string) (string, error) {
	if err := ValidateModule(module); err != nil {
		return "", err
	}
	sess, err := s.sessions.Active()
	if err != nil {
		return "", err
	}
	return sess.PrincipalID, nil
}

// LoadCollection returns every record in module. A collection that was never
// written is empty.
func (s *Store) LoadCollection(ctx context.Context, module string) ([]Record, error) {
	principalID, err := s.begin(module)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, principalID, module)
}

// SaveRecord inserts or replaces rec in module and returns the stored copy.
//
// A record without an id gets a fresh one. A record whose id is not in the
// collection also gets a fresh id and is stored as new.
func (s *Store) SaveRecord(ctx context.Context, module string, rec Record) (Record, error) {
	principalID, err := s.begin(module)
	if err != nil {
		return Record{}, err
	}
	if err := validateFields(rec.Fields); err != nil {
		return Record{}, err
	}

	l := s.lockFor(principalID, module)
	l.Lock()
	defer l.Unlock()

	collection, err := s.load(ctx, principalID, module)
	if err != nil {
		return Record{}, err
	}

	collection, saved, outcome, err := upsert(collection, rec, s.now().UTC())
	if err != nil {
		return Record{}, err
	}
	if outcome == outcomeReassigned {
		s.logger.Debug("unknown record id, storing as new",
			zap.String("module", module), zap.String("id", rec.ID), zap.String("new_id", saved.ID))
	}

	if err := s.persist(ctx, principalID, module, collection); err != nil {
		return Record{}, err
	}

	s.logger.Debug("record saved", zap.String("module", module), zap.String("id", saved.ID))
	return saved.Clone(), nil
}

// BatchResult reports what MergeCollection or ReplaceCollection did.
type BatchResult struct {
	// Saved holds the stored copies in input order.
	Saved []Record

	Added      int
	Updated    int
	Reassigned int
	Removed    int
}

// MergeCollection saves every record of recs into module with the rules of
// SaveRecord, in one load and one write. Either every record is stored or
// the collection is left untouched.
func (s *Store) MergeCollection(ctx context.Context, module string, recs []Record) (BatchResult, error) {
	return s.saveBatch(ctx, module, recs, false)
}

// ReplaceCollection drops every record of module and stores recs in their
// place, in one load and one write. The old ids no longer exist, so every
// record gets a fresh id. On error the collection is left untouched.
func (s *Store) ReplaceCollection(ctx context.Context, module string, recs []Record) (BatchResult, error) {
	return s.saveBatch(ctx, module, recs, true)
}

func (s *Store) saveBatch(ctx context.Context, module string, recs []Record, replace bool) (BatchResult, error) {
	principalID, err := s.begin(module)
	if err != nil {
		return BatchResult{}, err
	}
	for i, rec := range recs {
		if err := validateFields(rec.Fields); err != nil {
			return BatchResult{}, fmt.Errorf("record %d: %w", i, err)
		}
	}

	l := s.lockFor(principalID, module)
	l.Lock()
	defer l.Unlock()

	collection, err := s.load(ctx, principalID, module)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	if replace {
		result.Removed = len(collection)
		collection = []Record{}
	}

	now := s.now().UTC()
	result.Saved = make([]Record, 0, len(recs))
	for _, rec := range recs {
		var saved Record
		var outcome saveOutcome
		collection, saved, outcome, err = upsert(collection, rec, now)
		if err != nil {
			return BatchResult{}, err
		}
		switch outcome {
		case outcomeAdded:
			result.Added++
		case outcomeUpdated:
			result.Updated++
		case outcomeReassigned:
			result.Reassigned++
		}
		result.Saved = append(result.Saved, saved.Clone())
	}

	if err := s.persist(ctx, principalID, module, collection); err != nil {
		return BatchResult{}, err
	}

	s.logger.Debug("collection saved",
		zap.String("module", module),
		zap.Bool("replace", replace),
		zap.Int("records", len(recs)),
		zap.Int("removed", result.Removed))
	return result, nil
}

type saveOutcome int

const (
	outcomeAdded saveOutcome = iota
	outcomeUpdated
	outcomeReassigned
)

// upsert applies the save rules for rec to collection.
func upsert(collection []Record, rec Record, now time.Time) ([]Record, Record, saveOutcome, error) {
	saved := rec.Clone()
	if saved.Fields == nil {
		saved.Fields = map[string]any{}
	}

	if idx := indexOf(collection, saved.ID); idx >= 0 {
		saved.Created = collection[idx].Created
		saved.Modified = now
		collection[idx] = saved
		return collection, saved, outcomeUpdated, nil
	}

	outcome := outcomeAdded
	if saved.ID != "" {
		outcome = outcomeReassigned
	}
	id, err := freshID(collection)
	if err != nil {
		return nil, Record{}, outcome, err
	}
	saved.ID = id
	saved.Created = now
	saved.Modified = now
	return append(collection, saved), saved, outcome, nil
}

// DeleteRecord removes the record with id. Deleting a missing id is a no-op.
func (s *Store) DeleteRecord(ctx context.Context, module, id string) error {
	principalID, err := s.begin(module)
	if err != nil {
		return err
	}

	l := s.lockFor(principalID, module)
	l.Lock()
	defer l.Unlock()

	collection, err := s.load(ctx, principalID, module)
	if err != nil {
		return err
	}

	idx := indexOf(collection, id)
	if idx < 0 {
		return nil
	}
	collection = slices.Delete(collection, idx, idx+1)

	if err := s.persist(ctx, principalID, module, collection); err != nil {
		return err
	}

	s.logger.Debug("record deleted", zap.String("module", module), zap.String("id", id))
	return nil
}

// GetRecord returns the record with id, if present.
func (s *Store) GetRecord(ctx context.Context, module, id string) (Record, bool, error) {
	collection, err := s.LoadCollection(ctx, module)
	if err != nil {
		return Record{}, false, err
	}
	idx := indexOf(collection, id)
	if idx < 0 {
		return Record{}, false, nil
	}
	return collection[idx], true, nil
}

// SearchRecords returns the records where any of fields holds a string
// containing query, ignoring case. An empty query matches everything. With
// no fields every string field is searched.
func (s *Store) SearchRecords(ctx context.Context, module, query string, fields []string) ([]Record, error) {
	collection, err := s.LoadCollection(ctx, module)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return collection, nil
	}

	q := strings.ToLower(query)
	matches := make([]Record, 0)
	for _, rec := range collection {
		if matchRecord(rec, q, fields) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

func matchRecord(rec Record, q string, fields []string) bool {
	if len(fields) == 0 {
		if strings.Contains(strings.ToLower(rec.ID), q) {
			return true
		}
		for _, v := range rec.Fields {
			if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), q) {
				return true
			}
		}
		return false
	}
	for _, f := range fields {
		if str, ok := rec.String(f); ok && strings.Contains(strings.ToLower(str), q) {
			return true
		}
	}
	return false
}

// ComputeStats counts the records of each primary module. Todos only count
// while not completed.
func (s *Store) ComputeStats(ctx context.Context) (map[string]int, error) {
	sess, err := s.sessions.Active()
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(PrimaryModules))
	g, gctx := errgroup.WithContext(ctx)
	for i, module := range PrimaryModules {
		i, module := i, module
		g.Go(func() error {
			collection, err := s.load(gctx, sess.PrincipalID, module)
			if err != nil {
				return err
			}
			if module == ModuleTodos {
				counts[i] = countOpenTodos(collection)
			} else {
				counts[i] = len(collection)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := make(map[string]int, len(PrimaryModules))
	for i, module := range PrimaryModules {
		stats[module] = counts[i]
	}
	return stats, nil
}

func countOpenTodos(collection []Record) int {
	n := 0
	for _, rec := range collection {
		if done, ok := rec.Fields["completed"].(bool); !ok || !done {
			n++
		}
	}
	return n
}

// PurgeAll deletes every collection of the active principal.
func (s *Store) PurgeAll(ctx context.Context) error {
	sess, err := s.sessions.Active()
	if err != nil {
		return err
	}
	if err := s.backend.DeleteAll(ctx, sess.PrincipalID); err != nil {
		return fmt.Errorf("%w: %w", cerrors.ErrPersistence, err)
	}
	s.logger.Info("all collections purged", zap.String("principal", sess.PrincipalID))
	return nil
}

func (s *Store) load(ctx context.Context, principalID, module string) ([]Record, error) {
	data, ok, err := s.backend.Read(ctx, principalID, module)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", cerrors.ErrPersistence, module, err)
	}
	if !ok || len(data) == 0 {
		return []Record{}, nil
	}

	if s.encrypt {
		var plain []byte
		err := s.sessions.WithKey(func(key *crypto.Key) error {
			var derr error
			plain, derr = crypto.DecryptWithKey(key, string(data))
			return derr
		})
		if err != nil {
			return nil, err
		}
		data = plain
	}

	var collection []Record
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", cerrors.ErrPersistence, module, err)
	}
	if collection == nil {
		collection = []Record{}
	}
	return collection, nil
}

func (s *Store) persist(ctx context.Context, principalID, module string, collection []Record) error {
	if collection == nil {
		collection = []Record{}
	}
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", cerrors.ErrValidation, module, err)
	}

	if s.encrypt {
		var blob string
		err := s.sessions.WithKey(func(key *crypto.Key) error {
			var eerr error
			blob, eerr = crypto.EncryptWithKey(key, data)
			return eerr
		})
		if err != nil {
			return err
		}
		data = []byte(blob)
	}

	if err := s.backend.Write(ctx, principalID, module, data); err != nil {
		return fmt.Errorf("%w: saving %s: %w", cerrors.ErrPersistence, module, err)
	}
	return nil
}

func indexOf(collection []Record, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(collection, func(r Record) bool { return r.ID == id })
}

func freshID(collection []Record) (string, error) {
	for {
		id, err := crypto.GenerateID()
		if err != nil {
			return "", err
		}
		if indexOf(collection, id) < 0 {
			return id, nil
		}
	}
}
