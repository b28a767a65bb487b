package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/registrar-controller/cmd/flags"
	"github.com/ruteri/registrar-controller/httpserver"
)

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

func main() {
	appFlags := []cli.Flag{listenAddrFlag}
	appFlags = append(appFlags, flags.SessionFlags...)
	appFlags = append(appFlags, flags.ServerFlags...)
	appFlags = append(appFlags, flags.LogFlags...)

	app := &cli.App{
		Name:  "registrar-server",
		Usage: "Serve the registrar controller over a JSON API",
		Flags: appFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			session, closeRPC, err := flags.ConnectSession(cCtx, logger)
			if err != nil {
				logger.Error("Failed to set up registrar session", "err", err)
				return err
			}
			defer closeRPC()

			logger.Info("Using registrar controller", "address", session.Address().Hex())

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name))
			server, err := httpserver.New(cfg, httpserver.NewHandler(session, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
