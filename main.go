package main

import (
	"os"

	"mm-replacer/cli"
)

func main() {
	os.Exit(cli.Execute(staticFiles))
}
