package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultFirestoreCollection = "scorekeeper"

// FirestoreStore keeps one document per key in a single collection.
// Document IDs are the path-escaped key so "/" never appears in them.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

type kvDocument struct {
	Key       string    `firestore:"key"`
	Value     []byte    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewFirestoreStore connects to the given project. An empty databaseID
// selects the "(default)" database; credentialsFile may be empty to use
// application default credentials.
func NewFirestoreStore(ctx context.Context, projectID, databaseID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var (
		client *firestore.Client
		err    error
	)
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	} else {
		client, err = firestore.NewClient(ctx, projectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: DefaultFirestoreCollection}, nil
}

func (s *FirestoreStore) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(url.PathEscape(key))
}

func (s *FirestoreStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.doc(key).Set(ctx, kvDocument{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *FirestoreStore) Load(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	var d kvDocument
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return d.Value, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, key string) error {
	if _, err := s.doc(key).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *FirestoreStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	iter := s.client.Collection(s.collection).DocumentRefs(ctx)
	keys := make([]string, 0)
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		key, err := url.PathUnescape(ref.ID)
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
