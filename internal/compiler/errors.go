package compiler

import "errors"

var (
	// ErrDeniedImport is returned when a source file imports a denied package.
	ErrDeniedImport = errors.New("denied import")

	// ErrMainPackage is returned for files of package main, which cannot be
	// imported.
	ErrMainPackage = errors.New("package main cannot be loaded")
)
