package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sitekit/internal/build"
)

func main() {
	srcDir := flag.String("src", "./src", "source directory")
	distDir := flag.String("dist", "./dist", "output directory")
	watch := flag.Bool("watch", false, "rebuild on source changes")
	flag.Parse()

	pipeline := build.New(*srcDir, *distDir)
	pipeline.Logf = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}

	if *watch {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		fmt.Printf("Watching %s for changes...\n", *srcDir)
		if err := pipeline.Watch(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := pipeline.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Build complete: %s\n", *distDir)
}
