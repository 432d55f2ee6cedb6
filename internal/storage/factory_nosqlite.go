//go:build !sqlite

package storage

import "fmt"

// DefaultStoreKind is the backend NewStore selects for an empty kind when
// the sqlite driver is not compiled in.
const DefaultStoreKind = "memory"

func newSQLiteStore(_ string) (Store, error) {
	return nil, fmt.Errorf("sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
