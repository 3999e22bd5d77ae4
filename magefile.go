//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

const binaryName = "wordtip"

// Build builds the wordtip binary
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building", binaryName, "...")
	// go-sqlite3 needs cgo
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWith(env, "go", "build", "-o", binaryName, "./cmd/wordtip")
}

// Test runs the test suite
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module
func Vet() error {
	return sh.Run("go", "vet", "./...")
}

// Lint runs golangci-lint when it is installed
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		return fmt.Errorf("golangci-lint not installed: %w", err)
	}
	return sh.RunV("golangci-lint", "run")
}

// Install builds and copies the binary into GOPATH/bin
func Install() error {
	mg.Deps(Build)

	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
		gopath = filepath.Join(home, "go")
	}

	target := filepath.Join(gopath, "bin", binaryName)
	fmt.Println("Installing to", target)
	return sh.Copy(target, binaryName)
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning...")
	return sh.Rm(binaryName)
}
