package main

import (
	"os"

	"github.com/niktheblak/motion-probe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
