package main

import (
	"os"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/cmd/citybus/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
