//go:build mage

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

const (
	binary  = "tiff-splitter"
	mainPkg = "./cmd/tiff-splitter"
	profile = "coverage.out"
)

// Build compiles the binary into the repo root
func Build() error {
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}

// Install puts the binary in GOBIN
func Install() error {
	return sh.RunV("go", "install", mainPkg)
}

// Test runs the unit tests with the race detector and writes a coverage profile
func Test() error {
	return sh.RunV("go", "test", "-race", "-coverprofile="+profile, "./...")
}

// TestIntegration splits real folders, local and over an in-process SFTP server
func TestIntegration() error {
	return sh.RunV("go", "test", "-race", "-tags=integration", "./tests/...")
}

// TestForFail runs the unit tests once, shuffled, stopping at the first failure
func TestForFail() error {
	return sh.RunV("go", "test", "-timeout=60s", "-failfast", "-shuffle=on", "-race", "./...")
}

// Lint runs golangci-lint, applying its fixes
func Lint() error {
	return golangci()
}

// LintForFail runs golangci-lint without fixing, one issue per linter
func LintForFail() error {
	return golangci("--fix=false", "--max-issues-per-linter=1", "--max-same-issues=1")
}

func golangci(extra ...string) error {
	args := append([]string{"run", "-c", ".golangci.yml"}, extra...)
	return sh.RunV("golangci-lint", append(args, "./...")...)
}

// CheckNils runs nilaway
func CheckNils() error {
	return sh.RunV("nilaway", "./...")
}

// Check formats, lints, tests and checks for nils
func Check() {
	mg.SerialDeps(Fmt, Lint, Test, CheckNils)
}

// CheckForFail is Check without touching any file
func CheckForFail() {
	mg.SerialDeps(FmtCheck, LintForFail, TestForFail, CheckNils)
}

// Fmt rewrites every file with gofmt -s and goimports
func Fmt() error {
	if err := sh.RunV("gofmt", "-s", "-w", "."); err != nil {
		return err
	}
	return sh.RunV("goimports", "-w", ".")
}

// FmtCheck prints the gofmt diff of every unformatted file and fails if there is one
func FmtCheck() error {
	var unformatted []string

	err := filepath.WalkDir(".", func(path string, entry fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case entry.IsDir() && (strings.HasPrefix(entry.Name(), "_") || entry.Name() == ".git"):
			return filepath.SkipDir
		case entry.IsDir() || filepath.Ext(path) != ".go":
			return nil
		}

		before, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		after, err := sh.Output("gofmt", "-s", path)
		if err != nil {
			return err
		}

		// sh.Output drops the final newline gofmt writes
		if diff := textdiff.Unified(path, path+" (gofmt)", string(before), after+"\n"); diff != "" {
			fmt.Print(diff)
			unformatted = append(unformatted, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(unformatted) > 0 {
		return fmt.Errorf("gofmt would change %s", strings.Join(unformatted, ", "))
	}
	return nil
}

// Coverage writes coverage.html from a fresh test run
func Coverage() error {
	mg.Deps(Test)
	if err := sh.RunV("go", "tool", "cover", "-html="+profile, "-o", "coverage.html"); err != nil {
		return err
	}
	fmt.Println("Coverage report: coverage.html")
	return nil
}

// Clean removes the binary and coverage output
func Clean() error {
	for _, path := range []string{binary, profile, "coverage.html"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}
