//go:build mage

package main

import (
	"errors"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups the test targets.
type Test mg.Namespace

// All runs every test in the module.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Short runs the tests in -short mode.
func (Test) Short() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Cover runs all tests and writes coverage.out.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func=coverage.out")
}

// Postgres runs the postgres backend tests. STACKS_TEST_POSTGRES_DSN must
// point at a reachable database.
func (Test) Postgres() error {
	if os.Getenv("STACKS_TEST_POSTGRES_DSN") == "" {
		return errors.New("STACKS_TEST_POSTGRES_DSN is not set")
	}
	return sh.RunV(binGo, "test", "-count=1", "./internal/postgres/...")
}
