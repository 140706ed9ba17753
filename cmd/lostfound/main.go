// Command lostfound runs the campus lost-and-found portal: the JSON API
// server and a single-user command line client over the same storage.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
