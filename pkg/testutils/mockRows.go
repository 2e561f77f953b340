// Copyright Contributors to the Open Cluster Management project
package testutils

import (
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgproto3/v2"
)

// ====================================================
// Mock the Row interface defined in the pgx library.
// https://github.com/jackc/pgx/blob/master/rows.go#L81
// ====================================================
type MockRow struct {
	MockValue []interface{}
	MockError error
}

func (r *MockRow) Scan(dest ...interface{}) error {
	if r.MockError != nil {
		return r.MockError
	}
	if len(dest) > len(r.MockValue) {
		return fmt.Errorf("scan expected %d values, mock has %d", len(dest), len(r.MockValue))
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *int:
			*d = r.MockValue[i].(int)
		case *string:
			*d = r.MockValue[i].(string)
		case *bool:
			*d = r.MockValue[i].(bool)
		case *interface{}:
			*d = r.MockValue[i]
		default:
			return fmt.Errorf("unexpected scan type %T", d)
		}
	}
	return nil
}

// ====================================================
// Mock the Rows interface defined in the pgx library.
// https://github.com/jackc/pgx/blob/master/rows.go#L26
// ====================================================
// MockRows returns one Granite document per row. ErrOnScan fails every Scan, ErrAfter fails the
// iteration once the documents are consumed.
type MockRows struct {
	Docs      []string
	ErrOnScan error
	ErrAfter  error
	index     int
	closed    bool
}

func (r *MockRows) Close() { r.closed = true }

// Closed reports whether the rows were released.
func (r *MockRows) Closed() bool { return r.closed }

func (r *MockRows) Err() error {
	if r.index > len(r.Docs) {
		return r.ErrAfter
	}
	return nil
}

func (r *MockRows) CommandTag() pgconn.CommandTag { return nil }

func (r *MockRows) FieldDescriptions() []pgproto3.FieldDescription {
	return []pgproto3.FieldDescription{{Name: []byte("data")}}
}

func (r *MockRows) Next() bool {
	r.index++
	return r.index <= len(r.Docs)
}

func (r *MockRows) Scan(dest ...interface{}) error {
	if r.ErrOnScan != nil {
		return r.ErrOnScan
	}
	d, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("unexpected scan type %T", dest[0])
	}
	*d = r.Docs[r.index-1]
	return nil
}

func (r *MockRows) Values() ([]interface{}, error) {
	return []interface{}{r.Docs[r.index-1]}, nil
}

func (r *MockRows) RawValues() [][]byte {
	return [][]byte{[]byte(r.Docs[r.index-1])}
}
