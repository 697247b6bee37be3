package main

import (
	"os"

	"github.com/YoshitsuguKoike/vaultloop/internal/interface/cli"
)

func main() {
	os.Exit(cli.Execute())
}
