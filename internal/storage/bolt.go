package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bolt keeps one bucket per principal with one key per module.
type Bolt struct {
	db  *bbolt.DB
	log *zap.Logger
}

// NewBolt opens (or creates) the bolt database at path.
func NewBolt(path string, log *zap.Logger) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt backend: database path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("bolt backend: creating directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt backend: opening %s: %w", path, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bolt{db: db, log: log}, nil
}

func (b *Bolt) Read(ctx context.Context, principalID, module string) ([]byte, bool, error) {
	if err := validateKey(principalID, module); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(principalID))
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(module)); v != nil {
			// Values are only valid for the life of the transaction.
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", principalID, module, err)
	}
	return out, out != nil, nil
}

func (b *Bolt) Write(ctx context.Context, principalID, module string, data []byte) error {
	if err := validateKey(principalID, module); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(principalID))
		if err != nil {
			return err
		}
		if data == nil {
			data = []byte{}
		}
		return bucket.Put([]byte(module), data)
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", principalID, module, err)
	}

	b.log.Debug("collection written", zap.String("module", module), zap.Int("bytes", len(data)))
	return nil
}

func (b *Bolt) DeleteAll(ctx context.Context, principalID string) error {
	if err := validatePart("principal id", principalID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(principalID)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(principalID))
	})
	if err != nil {
		return fmt.Errorf("removing data for %s: %w", principalID, err)
	}
	return nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
