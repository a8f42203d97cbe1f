package main

import (
	"os"

	"confluence-mcp/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
