//go:build mage

// Package main provides build targets for the stacks project using Mage.
//
// Usage:
//
//	mage build          Compile stacks binary to bin/
//	mage test:all       Run all tests
//	mage test:short     Run tests without the random invariant walk
//	mage test:cover     Run tests with a coverage profile
//	mage test:postgres  Run the postgres backend tests against STACKS_TEST_POSTGRES_DSN
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install stacks to GOPATH/bin
//	mage stats          Print per-package Go line counts and design doc words as JSON
//	mage packageTable   Print per-package Go line counts as a table
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "stacks"
	binaryDir  = "bin"
	cmdDir     = "./cmd/stacks"
	modulePath = "github.com/mesh-intelligence/stacks"
)

// Default is the target run by a bare "mage".
var Default = Build

// Build compiles the stacks binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	version := os.Getenv("STACKS_VERSION")
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if version != "" {
		args = append(args, "-ldflags", "-X "+modulePath+"/internal/cli.Version="+version)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
