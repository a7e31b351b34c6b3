package main

import (
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type ReportCommands struct {
	Stats  StatsCommand  `cmd:"" name:"stats" help:"Show current queue-wide job, worker, and lock counters." group:"REPORT"`
	Repair RepairCommand `cmd:"" name:"repair" help:"Run one pass of the periodic maintenance sweep." group:"REPORT"`
}

type StatsCommand struct {
	History bool `name:"history" help:"Show the trailing 24 hourly buckets instead of current counters"`
}

type RepairCommand struct{}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *StatsCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	if cmd.History {
		history, err := manager.History(ctx.ctx)
		if err != nil {
			return err
		}
		fmt.Println(history)
		return nil
	}

	stats, err := manager.Stats(ctx.ctx)
	if err != nil {
		return err
	}

	fmt.Println(stats)
	return nil
}

func (cmd *RepairCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := manager.Repair(ctx.ctx); err != nil {
		return err
	}

	fmt.Println("repair complete")
	return nil
}
