package storage

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultFirestoreCollection = "principals"

// Firestore stores each collection as the document
// <collection>/<principal>/modules/<module> with the serialized payload in
// the "payload" field.
type Firestore struct {
	client     *firestore.Client
	collection string
	retry      RetryPolicy
	log        *zap.Logger
}

// NewFirestore creates a client for opts.ProjectID. When
// FIRESTORE_EMULATOR_HOST is set the client talks to the emulator.
func NewFirestore(ctx context.Context, opts FirestoreOptions, retry RetryPolicy, log *zap.Logger) (*Firestore, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("firestore backend: project id must be set")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("firestore backend: creating client: %w", err)
	}

	collection := opts.Collection
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	return &Firestore{client: client, collection: collection, retry: retry, log: log}, nil
}

func (f *Firestore) modules(principalID string) *firestore.CollectionRef {
	return f.client.Collection(f.collection).Doc(principalID).Collection("modules")
}

func isFirestoreTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	}
	return false
}

func (f *Firestore) Read(ctx context.Context, principalID, module string) ([]byte, bool, error) {
	if err := validateKey(principalID, module); err != nil {
		return nil, false, err
	}

	var snap *firestore.DocumentSnapshot
	err := f.retry.do(ctx, f.log, "get", isFirestoreTransient, func() error {
		var err error
		snap, err = f.modules(principalID).Doc(module).Get(ctx)
		return err
	})
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", principalID, module, err)
	}

	raw, err := snap.DataAt("payload")
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", principalID, module, err)
	}
	data, ok := raw.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("reading %s/%s: payload has type %T", principalID, module, raw)
	}
	return data, true, nil
}

func (f *Firestore) Write(ctx context.Context, principalID, module string, data []byte) error {
	if err := validateKey(principalID, module); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	err := f.retry.do(ctx, f.log, "set", isFirestoreTransient, func() error {
		_, err := f.modules(principalID).Doc(module).Set(ctx, map[string]interface{}{
			"payload":   data,
			"updatedAt": firestore.ServerTimestamp,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", principalID, module, err)
	}

	f.log.Debug("collection written", zap.String("module", module), zap.Int("bytes", len(data)))
	return nil
}

func (f *Firestore) DeleteAll(ctx context.Context, principalID string) error {
	if err := validatePart("principal id", principalID); err != nil {
		return err
	}

	err := f.retry.do(ctx, f.log, "delete", isFirestoreTransient, func() error {
		iter := f.modules(principalID).Documents(ctx)
		defer iter.Stop()
		for {
			doc, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := doc.Ref.Delete(ctx); err != nil {
				return err
			}
		}
	})
	if err != nil {
		return fmt.Errorf("removing data for %s: %w", principalID, err)
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
