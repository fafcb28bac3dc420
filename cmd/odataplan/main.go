package main

import (
	"os"
)

func main() {
	rootCmd := newRootCmd()
	registerExplainCmd(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
