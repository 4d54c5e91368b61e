// Command mealctl imports catalogue data and manages the recommendation
// models outside the HTTP server.
package main

import (
	"os"

	"github.com/fatih/color"

	applog "nutriplan/internal/log"
)

func main() {
	err := newRootCmd(openFromConfig).Execute()
	_ = applog.Sync()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
