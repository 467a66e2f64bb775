//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and starts the viewer with skyview.toml.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)
	fmt.Println("Run viewer...")
	_, err := executeCmd(binary, withArgs("--config", "skyview.toml"), withStream())
	return err
}

// Runs the unit tests. None of them need a display.
func (Run) Test() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./internal/..."), withStream())
	return err
}
