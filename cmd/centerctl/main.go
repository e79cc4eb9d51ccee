package main

import (
	"os"

	"center-lookup/cmd/centerctl/tool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
