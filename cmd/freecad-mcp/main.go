package main

import (
	"os"

	"github.com/blwfish/freecad-mcp-sub000/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
