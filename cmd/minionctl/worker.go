package main

import (
	"fmt"

	// Packages
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type WorkerCommands struct {
	Workers  ListWorkersCommand    `cmd:"" name:"workers" help:"List registered workers." group:"WORKER"`
	Worker   GetWorkerCommand      `cmd:"" name:"worker" help:"Get a single worker." group:"WORKER"`
	Evict    UnregisterWorkerCmd   `cmd:"" name:"evict-worker" help:"Unregister a worker." group:"WORKER"`
}

type ListWorkersCommand struct {
	Offset uint64 `name:"offset" help:"Pagination offset" default:"0"`
	Limit  uint64 `name:"limit" help:"Pagination limit" default:"100"`
}

type GetWorkerCommand struct {
	Id uint64 `arg:"" name:"id" help:"Worker id"`
}

type UnregisterWorkerCmd struct {
	Id uint64 `arg:"" name:"id" help:"Worker id"`
}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListWorkersCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	req := schema.WorkerListRequest{}
	req.Offset, req.Limit = cmd.Offset, cmd.Limit

	list, err := manager.ListWorkers(ctx.ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(list)
	return nil
}

func (cmd *GetWorkerCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	worker, err := manager.GetWorker(ctx.ctx, cmd.Id)
	if err != nil {
		return err
	}

	fmt.Println(worker)
	return nil
}

func (cmd *UnregisterWorkerCmd) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := manager.UnregisterWorker(ctx.ctx, cmd.Id); err != nil {
		return err
	}

	fmt.Println("unregistered worker", cmd.Id)
	return nil
}
