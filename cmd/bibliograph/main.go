// Package main provides the bibliograph CLI.
//
// Usage:
//
//	bibliograph [flags] <command> [args]
//
// Commands:
//
//	serve    - Serve the catalog over HTTP
//	resolve  - Print an entity with its rendered relationships
//	version  - Print the version
//
// The store is PostgreSQL by default, configured through the DB_* environment
// variables or a .env file. Use --config to select the badger backend.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
