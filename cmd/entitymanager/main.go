// Package main provides the entry point for the entitymanager CLI.
//
// entitymanager derives keys for entity records, inspects shard address
// spaces, decodes page key map tokens and runs sharded queries against
// DynamoDB.
package main

import (
	"fmt"
	"os"

	"github.com/jacentio/entitymanager/internal/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
