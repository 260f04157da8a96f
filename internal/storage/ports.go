package storage

import "context"

// KeyValueStore is the persistence port used by the ledger. Values are opaque
// JSON documents; a missing key is reported with ok == false, not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
