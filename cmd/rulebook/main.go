package main

import (
	"os"

	"github.com/effect-patterns/rulebook/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
