package main

import (
	"encoding/json"
	"fmt"
	"time"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type JobCommands struct {
	Jobs      ListJobsCommand   `cmd:"" name:"jobs" help:"List jobs with optional filters." group:"JOB"`
	Job       GetJobCommand     `cmd:"" name:"job" help:"Get a single job." group:"JOB"`
	Enqueue   EnqueueJobCommand `cmd:"" name:"enqueue" help:"Enqueue a new job." group:"JOB"`
	Dequeue   DequeueJobCommand `cmd:"" name:"dequeue" help:"Dequeue the next eligible job for a worker." group:"JOB"`
	Retry     RetryJobCommand   `cmd:"" name:"retry" help:"Manually retry a failed or finished job." group:"JOB"`
	RemoveJob RemoveJobCommand  `cmd:"" name:"remove-job" help:"Remove a terminal or pending job." group:"JOB"`
}

type ListJobsCommand struct {
	Queue  string `name:"queue" help:"Filter by queue name"`
	State  string `name:"state" help:"Filter by state (inactive, active, failed, finished)"`
	Task   string `name:"task" help:"Filter by task name"`
	Offset uint64 `name:"offset" help:"Pagination offset" default:"0"`
	Limit  uint64 `name:"limit" help:"Pagination limit" default:"100"`
}

type GetJobCommand struct {
	Id uint64 `arg:"" name:"id" help:"Job id"`
}

type EnqueueJobCommand struct {
	Task     string `arg:"" name:"task" help:"Task name"`
	Args     string `name:"args" help:"Job arguments (JSON)"`
	Queue    string `name:"queue" help:"Queue name" default:"default"`
	Priority int    `name:"priority" help:"Job priority"`
	Attempts uint64 `name:"attempts" help:"Maximum attempts" default:"1"`
}

type DequeueJobCommand struct {
	Worker uint64        `arg:"" name:"worker" help:"Worker id"`
	Wait   time.Duration `name:"wait" help:"Maximum time to wait for an eligible job" default:"0s"`
	Queue  string        `name:"queue" help:"Restrict to a queue name"`
	Task   string        `name:"task" help:"Restrict to a task name"`
}

type RetryJobCommand struct {
	Id       uint64 `arg:"" name:"id" help:"Job id"`
	Retries  uint64 `arg:"" name:"retries" help:"Job's current retry count"`
	Priority *int   `name:"priority" help:"Override priority"`
	Queue    *string `name:"queue" help:"Override queue name"`
}

type RemoveJobCommand struct {
	Id uint64 `arg:"" name:"id" help:"Job id"`
}

////////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListJobsCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	req := schema.JobListRequest{}
	req.Offset, req.Limit = cmd.Offset, cmd.Limit
	if cmd.Queue != "" {
		req.Queues = []string{cmd.Queue}
	}
	if cmd.State != "" {
		req.States = []string{cmd.State}
	}
	if cmd.Task != "" {
		req.Tasks = []string{cmd.Task}
	}

	list, err := manager.ListJobs(ctx.ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(list)
	return nil
}

func (cmd *GetJobCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	job, err := manager.GetJob(ctx.ctx, cmd.Id)
	if err != nil {
		return err
	}

	fmt.Println(job)
	return nil
}

func (cmd *EnqueueJobCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	var args any
	if cmd.Args != "" {
		if err := json.Unmarshal([]byte(cmd.Args), &args); err != nil {
			return fmt.Errorf("invalid args JSON: %w", err)
		}
	}

	id, err := manager.Enqueue(ctx.ctx, schema.JobEnqueue{
		Task:     cmd.Task,
		Args:     args,
		Queue:    cmd.Queue,
		Priority: cmd.Priority,
		Attempts: cmd.Attempts,
	})
	if err != nil {
		return err
	}

	job, err := manager.GetJob(ctx.ctx, id)
	if err != nil {
		return err
	}

	fmt.Println(job)
	return nil
}

func (cmd *DequeueJobCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	var queues, tasks []string
	if cmd.Queue != "" {
		queues = []string{cmd.Queue}
	}
	if cmd.Task != "" {
		tasks = []string{cmd.Task}
	}

	var job *schema.JobDequeued
	if cmd.Wait > 0 {
		job, err = manager.DequeueWait(ctx.ctx, cmd.Worker, cmd.Wait, queues, tasks)
	} else {
		job, err = manager.Dequeue(ctx.ctx, cmd.Worker, queues, tasks)
	}
	if err != nil {
		return err
	}
	if job == nil {
		fmt.Println("no eligible job")
		return nil
	}

	fmt.Println(job)
	return nil
}

func (cmd *RetryJobCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	ok, err := manager.RetryJob(ctx.ctx, cmd.Id, cmd.Retries, minion.RetryOpt{
		Priority: cmd.Priority,
		Queue:    cmd.Queue,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("job %d was not at retry count %d", cmd.Id, cmd.Retries)
	}

	fmt.Println("retried job", cmd.Id)
	return nil
}

func (cmd *RemoveJobCommand) Run(ctx *Globals) error {
	manager, conn, err := ctx.Manager()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := manager.RemoveJob(ctx.ctx, cmd.Id); err != nil {
		return err
	}

	fmt.Println("removed job", cmd.Id)
	return nil
}
