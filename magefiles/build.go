//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

const binary = "bin/skyview"

type Build mg.Namespace

// Downloads modules and builds the viewer into bin/.
func (Build) Viewer() error {
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "-o", binary, "./cmd/skyview"), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}

// Vets every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
