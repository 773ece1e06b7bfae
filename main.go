package main

import (
	"context"
	"os"

	"github.com/nullstore/snapvault/app"
	"github.com/nullstore/snapvault/ui"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		os.Stdout.WriteString(version + "\n")
		os.Exit(0)
	}

	ctx := context.Background()

	application, err := app.Bootstrap(ctx)
	if err != nil {
		ui.Error(os.Stderr, "snapvault: "+err.Error())
		os.Exit(2)
	}

	err = application.Run(ctx, os.Args[1:])
	if err != nil && app.ExitCode(err) == 1 {
		ui.Error(os.Stderr, "Destination already exists")
	} else if err != nil {
		ui.Error(os.Stderr, "snapvault: "+err.Error())
	}
	os.Exit(app.ExitCode(err))
}
