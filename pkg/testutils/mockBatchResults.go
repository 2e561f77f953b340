// Copyright Contributors to the Open Cluster Management project
package testutils

import (
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// ===========================================================
// Mock the BatchResults interface defined in the pgx library.
// https://github.com/jackc/pgx/blob/master/batch.go#L34
// ===========================================================
type MockBatchResults struct {
	Row         MockRow
	ExecErr     error // Return an error on Exec()
	QueryErr    error // Return an error on Query()
	CloseErr    error // Return an error on Close()
	ExecCalls   int
	ClosedCalls int
}

func (br *MockBatchResults) Exec() (pgconn.CommandTag, error) {
	br.ExecCalls++
	if br.ExecErr != nil {
		return nil, br.ExecErr
	}
	return pgconn.CommandTag("INSERT 0 1"), nil
}

func (br *MockBatchResults) Query() (pgx.Rows, error) {
	return nil, br.QueryErr
}

func (br *MockBatchResults) QueryRow() pgx.Row {
	return &br.Row
}

func (br *MockBatchResults) QueryFunc(scans []interface{}, f func(pgx.QueryFuncRow) error) (pgconn.CommandTag, error) {
	return nil, br.QueryErr
}

func (br *MockBatchResults) Close() error {
	br.ClosedCalls++
	return br.CloseErr
}
