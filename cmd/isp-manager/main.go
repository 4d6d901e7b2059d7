package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/isp-manager/internal/app/manager"
	"github.com/magabrotheeeer/isp-manager/internal/cli"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	root := cli.NewRootCommand(manager.Load, cli.Options{})
	code := cli.Execute(ctx, root)
	stop()
	os.Exit(code)
}
