package main

import (
	"fmt"
	"os"

	"github.com/replydigest/replydigest/cmd/replydigest/commands"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := commands.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
