package main

import (
	"os"
	sys "os"
)

func main() {
	defer cleanup()

	if len(os.Args) > 5 {
		os.Exit(2) // want "os.Exit call inside main function"
	}

	func() {
		sys.Exit(1) // want "os.Exit call inside main function"
	}()

	exit()
}

func exit() {
	os.Exit(0)
}

func cleanup() {}
