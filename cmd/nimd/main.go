package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/leaanthony/clir"

	"nimd/internal/supervisor"
)

func main() {
	var port string
	var metricsAddr string
	var debug bool

	cli := clir.NewCli("nimd", "A concurrent subtraction-game server", "v1.0.0")
	cli.StringFlag("port", "TCP port to listen on", &port)
	cli.StringFlag("metrics", "Address to serve Prometheus metrics on (empty disables it)", &metricsAddr)
	cli.BoolFlag("debug", "Enable debug logging", &debug)

	cli.Action(func() error {
		if port == "" {
			port = "9000"
		}

		sup, err := supervisor.New(":"+port, metricsAddr, debug)
		if err != nil {
			return err
		}

		fmt.Printf("nimd listening on %s\n", sup.Addr())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-c
			log.Println("shutting down")
			cancel()
		}()

		return sup.Run(ctx)
	})

	if err := cli.Run(); err != nil {
		log.Fatal(err)
	}
}
