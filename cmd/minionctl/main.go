package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	// Packages
	kong "github.com/alecthomas/kong"
	db "github.com/Grinnz/minion-pg/pkg/db"
	minion "github.com/Grinnz/minion-pg/pkg/minion"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Debug   bool             `name:"debug" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Print version and exit"`

	URL       string `name:"url" env:"MINION_URL" help:"Path to the database file" default:"minion.db"`
	Namespace string `name:"namespace" env:"MINION_NAMESPACE" help:"Queue namespace" default:"minion"`

	HTTP struct {
		Prefix string `name:"prefix" help:"HTTP path prefix" default:"/api/v1"`
		Addr   string `name:"addr" env:"MINION_ADDR" help:"HTTP listen address" default:":8080"`
	} `embed:"" prefix:"http."`

	// Private fields
	ctx    context.Context
	cancel context.CancelFunc
}

type CLI struct {
	Globals
	JobCommands
	WorkerCommands
	LockCommands
	ServerCommands
	ReportCommands
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	cli := new(CLI)
	ctx := kong.Parse(cli,
		kong.Name("minionctl"),
		kong.Description("minionctl command line interface"),
		kong.Vars{
			"version": VersionJSON(),
		},
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cli.Globals.ctx, cli.Globals.cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	defer cli.Globals.cancel()

	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// Manager opens the database file and returns a minion manager scoped to
// the configured namespace.
func (g *Globals) Manager() (*minion.Manager, db.PoolConn, error) {
	opts := []db.Opt{db.WithURL(g.URL)}
	if g.Debug {
		opts = append(opts, db.WithTrace(func(ctx context.Context, query string, err error) {
			fmt.Println("DB TRACE:", query, err)
		}))
	}

	conn, err := db.NewPool(g.ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Ping(g.ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}

	manager, err := minion.New(g.ctx, conn, minion.WithNamespace(g.Namespace))
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return manager, conn, nil
}
