package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/config"
	setupHTTP "github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/setup"

	_ "time/tzdata"
)

func main() {
	cfg := config.Get()
	s, err := server.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	setupHTTP.Setup(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = s.Start(ctx); err != nil {
		s.Logger.Errorf("Server stopped with error: %v", err)
		os.Exit(1)
	}
}
