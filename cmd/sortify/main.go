package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}
	// Interrupt-driven shutdown is a normal exit path; keep it quiet.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "sortify:", err)
	}
	os.Exit(1)
}
