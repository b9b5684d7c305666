package main

import (
	"os"

	"taxonomy/builder/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
