package main

import (
	"os"

	"github.com/fairlens/fairlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
