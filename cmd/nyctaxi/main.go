// Command nyctaxi stages NYC Yellow Taxi trip files in an object store and
// bulk-loads them into a Postgres table.
//
//	nyctaxi fetch     download monthly files, combine, upload
//	nyctaxi load      load every staged file into the warehouse
//	nyctaxi validate  check the configuration and exit
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "nyctaxi/internal/objectstore/all"
	_ "nyctaxi/internal/storage/all"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
