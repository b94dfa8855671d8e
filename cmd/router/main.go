package main

import (
	"os"

	"github.com/wonny/thesisrouter/cmd/router/commands"
)

// main is the entry point for the thesis router CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/router [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
