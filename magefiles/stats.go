//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceRoots are the trees whose Go files stats counts.
var sourceRoots = []string{"cmd", "internal", "pkg"}

// designDocs are the documents whose words stats counts.
var designDocs = []string{"README.md", "DESIGN.md", "SPEC_FULL.md"}

// packageStats holds line counts for one Go package directory.
type packageStats struct {
	Prod  int `json:"prod"`
	Tests int `json:"tests"`
}

// statsRecord is the JSON record printed by Stats.
type statsRecord struct {
	Packages map[string]packageStats `json:"packages"`
	Prod     int                     `json:"go_loc_prod"`
	Tests    int                     `json:"go_loc_test"`
	DocWords map[string]int          `json:"doc_words"`
}

// Stats prints one JSON record with Go line counts per package under cmd,
// internal and pkg, and word counts for the design documents.
func Stats() error {
	record := statsRecord{
		Packages: map[string]packageStats{},
		DocWords: map[string]int{},
	}
	for _, root := range sourceRoots {
		if err := countPackages(root, &record); err != nil {
			return err
		}
	}
	for _, doc := range designDocs {
		words, err := countWords(doc)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		record.DocWords[doc] = words
	}

	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

// PackageTable prints the per-package line counts as aligned text.
func PackageTable() error {
	record := statsRecord{Packages: map[string]packageStats{}}
	for _, root := range sourceRoots {
		if err := countPackages(root, &record); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(record.Packages))
	for name := range record.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := record.Packages[name]
		fmt.Printf("%-36s %6d %6d\n", name, s.Prod, s.Tests)
	}
	fmt.Printf("%-36s %6d %6d\n", "total", record.Prod, record.Tests)
	return nil
}

func countPackages(root string, record *statsRecord) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		lines, err := countLines(path)
		if err != nil {
			return err
		}
		pkg := filepath.ToSlash(filepath.Dir(path))
		s := record.Packages[pkg]
		if strings.HasSuffix(path, "_test.go") {
			s.Tests += lines
			record.Tests += lines
		} else {
			s.Prod += lines
			record.Prod += lines
		}
		record.Packages[pkg] = s
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

func countWords(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return len(strings.Fields(string(data))), nil
}
