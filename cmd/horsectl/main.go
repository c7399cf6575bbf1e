package main

import (
	"os"

	"horsecounter/internal/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		os.Exit(1)
	}
}
