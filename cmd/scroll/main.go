package main

import (
	"os"

	"github.com/scrollkit/scroll-cli/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
