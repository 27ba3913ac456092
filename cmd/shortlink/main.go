package main

import (
	"github.com/sundayezeilo/shortener-cli/internal/cli"
)

func main() {
	cli.Execute()
}
