//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test in the test build mode.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "-tags", "test", "./..."), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}
