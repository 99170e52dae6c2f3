package main

import (
	"os"

	"github.com/pkucera/chpdispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
