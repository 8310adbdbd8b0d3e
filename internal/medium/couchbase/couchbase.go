// Package couchbase adapts a Couchbase collection to the medium contract.
// Entries are stored one document per key with the raw serialized string in a
// single field; prefix enumeration goes through a N1QL scan over document IDs.
package couchbase

import (
	"errors"
	"fmt"
	"sort"

	"github.com/couchbase/gocb/v2"
)

// document wraps the stored string so every entry is a valid JSON document.
type document struct {
	Value string `json:"value"`
}

type Medium struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection

	// qualified keyspace for prefix scans, e.g. bucket.scope.collection
	keyspace string
}

// New creates a medium over the given collection. The bucket and scope names
// are needed to qualify the keyspace used by Keys.
func New(cluster *gocb.Cluster, bucket *gocb.Bucket, scope, collection string) (*Medium, error) {
	if cluster == nil || bucket == nil {
		return nil, errors.New("invalid Couchbase parameters: cluster and bucket must not be nil")
	}
	if scope == "" || collection == "" {
		return nil, errors.New("invalid Couchbase parameters: scope and collection must not be empty")
	}

	return &Medium{
		cluster:    cluster,
		collection: bucket.Scope(scope).Collection(collection),
		keyspace:   fmt.Sprintf("`%s`.`%s`.`%s`", bucket.Name(), scope, collection),
	}, nil
}

func (m *Medium) Get(key string) (string, bool, error) {
	res, err := m.collection.Get(key, nil)
	switch {
	case err == nil:
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("failed to get document with key %s: %w", key, err)
	}

	var doc document
	if err := res.Content(&doc); err != nil {
		return "", false, fmt.Errorf("failed to parse document content for key %s: %w", key, err)
	}

	return doc.Value, true, nil
}

func (m *Medium) Set(key, value string) error {
	if _, err := m.collection.Upsert(key, document{Value: value}, nil); err != nil {
		return fmt.Errorf("failed to upsert document with key %s: %w", key, err)
	}

	return nil
}

func (m *Medium) Remove(key string) error {
	if _, err := m.collection.Remove(key, nil); err != nil && !errors.Is(err, gocb.ErrDocumentNotFound) {
		return fmt.Errorf("failed to remove document with key %s: %w", key, err)
	}

	return nil
}

func (m *Medium) Keys(prefix string) ([]string, error) {
	query := fmt.Sprintf(`SELECT RAW META(e).id FROM %s e WHERE META(e).id LIKE $prefix`, m.keyspace)

	result, err := m.cluster.Query(query, &gocb.QueryOptions{
		NamedParameters: map[string]any{"prefix": likeEscape(prefix) + "%"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query keys under %s: %w", prefix, err)
	}

	var keys []string
	for result.Next() {
		var k string
		if err := result.Row(&k); err != nil {
			return nil, fmt.Errorf("failed to parse query row: %w", err)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

func (m *Medium) Close() error {
	return m.cluster.Close(nil)
}

// likeEscape protects LIKE metacharacters inside the prefix itself.
func likeEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' || s[i] == '_' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
