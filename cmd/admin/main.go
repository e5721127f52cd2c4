package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskline/internal/admin"
	"github.com/dmitrijs2005/taskline/internal/server/config"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" {
		admin.Usage(os.Stderr)
		os.Exit(2)
	}

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	app, err := admin.NewApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	err = app.Run(ctx, command, args)
	_ = app.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if errors.Is(err, admin.ErrUsage) {
			admin.Usage(os.Stderr)
			os.Exit(2)
		}
		os.Exit(1)
	}
}
