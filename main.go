// main is the entry point of the binforecast CLI.
package main

import (
	"github.com/huangsam/binforecast/cmd"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseCaching()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
