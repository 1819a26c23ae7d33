package main

import (
	"os"

	"github.com/scan-io-git/issuetrack/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
