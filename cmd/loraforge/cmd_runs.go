package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/lora-forge/forge/runstore"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runsCmd inspects the run database
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded preparation runs",
	RunE:  runRunsList,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its events and checkpoints",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := runstore.Open(cfg.Runs.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs, err := store.ListJobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-8s  %-6s  %s\n", "ID", "STATUS", "TRAIN", "EVAL", "CREATED")
	for _, j := range jobs {
		fmt.Printf("%-36s  %-10s  %-8d  %-6d  %s\n",
			j.ID, j.Status, j.TrainExamples, j.EvalExamples,
			j.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	store, err := runstore.Open(cfg.Runs.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := store.GetJob(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", job.ID)
	fmt.Printf("  base model: %s\n", job.BaseModel)
	fmt.Printf("  status:     %s\n", job.Status)
	fmt.Printf("  seed:       %d\n", job.Seed)
	fmt.Printf("  examples:   %d train / %d eval\n", job.TrainExamples, job.EvalExamples)
	fmt.Printf("  created:    %s\n", job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if job.FinishedAt != nil {
		fmt.Printf("  finished:   %s\n", job.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}

	events, err := store.Events(job.ID)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		fmt.Println("Events:")
		for _, e := range events {
			fmt.Printf("  [%s] %s %s\n", e.Level, e.CreatedAt.Local().Format("15:04:05"), e.Message)
		}
	}

	cps, err := store.Checkpoints(job.ID)
	if err != nil {
		return err
	}
	if len(cps) > 0 {
		fmt.Println("Checkpoints:")
		for _, c := range cps {
			fmt.Printf("  step %-6d loss %.4f  %s\n", c.Step, c.TrainLoss, c.Path)
		}
	}
	return nil
}
