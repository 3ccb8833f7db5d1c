package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/coffer/cmd"

	"github.com/awnumar/memguard"
)

func main() {
	// Wipe enclaves and locked buffers if the process is interrupted.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		memguard.Purge()
		os.Exit(1)
	}
}
