package main

import (
	"os"

	"github.com/MrSnakeDoc/pocket2drive/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
