package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockStore builds a Store backed by a sqlmock connection, shared by
// every _test.go file in this package.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	return &Store{db: db}, mock
}
