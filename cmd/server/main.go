package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openwx/weather-gateway/internal/app"
)

func main() {
	application, err := app.New()

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start application: %v\n", err)
		os.Exit(1)
	}

	application.WaitForShutdown()
	application.Stop()
}
