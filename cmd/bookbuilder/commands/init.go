package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(root *CLI) error {
	return RunInit(root.ConfigPath(), i.Force)
}

func RunInit(configPath string, force bool) error {
	fmt.Println("Initializing bookbuilder project")
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}

func baseName(p string) string { return filepath.Base(p) }
