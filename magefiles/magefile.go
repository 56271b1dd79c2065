//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

const (
	binary = "bin/castle"
	pkg    = "./cmd/castle"
)

// Build compiles the castle binary into bin/.
func Build() error {
	if _, err := executeCmd("go", withArgs("build", "-o", binary, pkg), withStream()); err != nil {
		return err
	}
	return nil
}

// Test runs every package test with the race detector.
func Test() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}

// Vet runs go vet over the module.
func Vet() error {
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Headless builds the binary and runs the scene on the simulated GPU.
func Headless() error {
	mg.Deps(Build)
	fmt.Println("Run headless...")
	if _, err := executeCmd(binary, withArgs("-headless", "-frames", "600", "-debug"), withStream()); err != nil {
		return err
	}
	return nil
}

// Run builds the binary and opens the castle window.
func Run() error {
	mg.Deps(Build)
	if _, err := executeCmd(binary, withArgs("-windowed"), withStream()); err != nil {
		return err
	}
	return nil
}
