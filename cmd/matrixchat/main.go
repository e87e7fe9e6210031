package main

import (
	"os"

	"matrixchat/cmd/matrixchat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
