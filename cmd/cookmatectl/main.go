package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cookmate/internal/admin"
)

func main() {
	if err := admin.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
