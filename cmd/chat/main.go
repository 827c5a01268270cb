// Chat CLI - talk to the configured Gemini model from a terminal.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
