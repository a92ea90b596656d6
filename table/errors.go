package table

import "errors"

var (
	// ErrExists is returned by Insert when a row with the same primary
	// key is already present.
	ErrExists = errors.New("table: record already exists")

	// ErrMissingTable is returned when the backing table is absent from
	// the store.
	ErrMissingTable = errors.New("table: backing table missing")

	// ErrTxOpen is returned by Begin when a transaction is already open
	// on the shared connection.
	ErrTxOpen = errors.New("table: transaction already open")

	// ErrNoTx is returned by Commit or Rollback when no transaction is
	// open.
	ErrNoTx = errors.New("table: no open transaction")
)
