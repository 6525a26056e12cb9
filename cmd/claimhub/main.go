package main

import (
	"context"
	"fmt"
	"os"

	"github.com/example/claimhub/internal/cli"
	"github.com/example/claimhub/internal/wire"
)

func main() {
	rootCmd := cli.RootCmd()

	err := rootCmd.Execute()
	wire.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
