package main

import (
	"os"

	"github.com/abhisek/wellnesswave/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
