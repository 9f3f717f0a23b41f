package main

import (
	"fmt"
	"os"

	"github.com/dshills/CorvusDB/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "corvus-explain: %v\n", err)
		os.Exit(1)
	}
}
