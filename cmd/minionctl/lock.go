package main

import (
	"fmt"
	"time"

	// Packages
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type LockCommands struct {
	Locks    ListLocksCommand `cmd:"" name:"locks" help:"List active locks." group:"LOCK"`
	Unlock   UnlockCommand    `cmd:"" name:"unlock" help:"Release a named lock." group:"LOCK"`
}

type ListLocksCommand struct {
	Offset uint64 `name:"offset" help:"Pagination offset" default:"0"`
	Limit  uint64 `name:"limit" help:"Pagination limit" default:"100"`
}

type UnlockCommand struct {
	Name string `arg:"" name:"name" help:"Lock name"`
}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListLocksCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	req := schema.LockListRequest{}
	req.Offset, req.Limit = cmd.Offset, cmd.Limit

	list, err := manager.ListLocks(ctx.ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(list)
	return nil
}

func (cmd *UnlockCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	ok, err := manager.Unlock(ctx.ctx, cmd.Name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock %q was not held", cmd.Name)
	}

	fmt.Println("released lock", cmd.Name, "at", time.Now().Format(time.RFC3339))
	return nil
}
