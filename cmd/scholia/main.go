package main

import (
	"github.com/veritus-labs/scholia/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
