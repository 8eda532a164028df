package table

import "errors"

var (
	// ErrInvalidRid is returned when a rid's page or slot is negative or
	// otherwise cannot address a record.
	ErrInvalidRid = errors.New("table: invalid rid")

	// ErrRecordNotFound is returned by GetRecord/DeleteRecord when the
	// slot named by a rid is free or never existed.
	ErrRecordNotFound = errors.New("table: record not found")

	// ErrNoMoreTuples is returned by Scan.Next once every data page has
	// been exhausted.
	ErrNoMoreTuples = errors.New("table: no more tuples")

	// ErrTableExists is returned by CreateTable when path already has a
	// file at it.
	ErrTableExists = errors.New("table: table file already exists")

	// ErrRecordSizeMismatch is returned by InsertRecord/UpdateRecord when
	// the record's payload is not exactly schema.RecordSize() bytes.
	ErrRecordSizeMismatch = errors.New("table: record payload size does not match schema")
)
