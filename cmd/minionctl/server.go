package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	// Packages
	httphandler "github.com/Grinnz/minion-pg/pkg/httphandler"
	version "github.com/Grinnz/minion-pg/pkg/version"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	logger "github.com/mutablelogic/go-server/pkg/logger"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	RunServer RunServer `cmd:"" name:"run" help:"Run the HTTP server and repair loop." group:"SERVER"`
}

type RunServer struct {
	RepairInterval time.Duration `name:"repair-interval" help:"Interval between repair sweeps" default:"30s"`

	TLS struct {
		ServerName string `name:"name" help:"TLS server name"`
		CertFile   string `name:"cert" help:"TLS certificate file"`
		KeyFile    string `name:"key" help:"TLS key file"`
	} `embed:"" prefix:"tls."`
}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServer) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	router := http.NewServeMux()
	httphandler.RegisterHandlers(router, ctx.HTTP.Prefix, manager)

	var tlsconfig *tls.Config
	if cmd.TLS.CertFile != "" || cmd.TLS.KeyFile != "" {
		tlsconfig, err = httpserver.TLSConfig(cmd.TLS.ServerName, true, cmd.TLS.CertFile, cmd.TLS.KeyFile)
		if err != nil {
			return err
		}
	}

	server, err := httpserver.New(ctx.HTTP.Addr, router, tlsconfig)
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, logger.Text, ctx.Debug)

	var wg sync.WaitGroup
	var result error
	fmt.Println(version.ExecName(), version.Version())

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ctx.cancel()

		ticker := time.NewTicker(cmd.RepairInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.ctx.Done():
				return
			case <-ticker.C:
				log.With("interval", cmd.RepairInterval).Debug(ctx.ctx, "running repair")
				if err := manager.Repair(ctx.ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Print(ctx.ctx, "repair error ", err)
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		fmt.Println("...listening on", ctx.HTTP.Addr+ctx.HTTP.Prefix)
		if err := server.Run(ctx.ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				result = errors.Join(result, fmt.Errorf("server error: %w", err))
			}
			ctx.cancel()
		}
	}()

	wg.Wait()

	if result == nil {
		fmt.Println(version.ExecName(), "terminated")
	}

	return result
}
