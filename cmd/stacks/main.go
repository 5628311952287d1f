// Package main provides the stacks CLI.
package main

import "github.com/mesh-intelligence/stacks/internal/cli"

func main() {
	cli.Execute()
}
