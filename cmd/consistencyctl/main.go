// Command consistencyctl manages message tables: it prints and applies the schema,
// creates, finds and deletes messages, and runs retention cleanup.
//
// Configuration is read from a YAML file, a .env file, CONSISTENCY_* environment
// variables and flags, in increasing order of precedence.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
