package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewTasksCommand creates the tasks command group.
func NewTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage asynchronous tasks",
		Long:    "Inspect, wait on and cancel vCloud Director tasks",
	}

	cmd.AddCommand(newTasksGetCommand())
	cmd.AddCommand(newTasksWaitCommand())
	cmd.AddCommand(newTasksCancelCommand())
	cmd.AddCommand(newTasksListCommand())

	return cmd
}

func newTasksGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get TASK_ID",
		Short: "Get task status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			task, err := client.Tasks().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}

			return outputTask(task)
		},
	}
}

func newTasksWaitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wait TASK_ID",
		Short: "Wait for a task to complete",
		Long:  "Poll a task until it leaves the running state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			task, err := client.Tasks().Wait(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed waiting for task: %w", err)
			}

			return outputTask(task)
		},
	}
}

func newTasksCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel TASK_ID",
		Short: "Cancel a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			if err := client.Tasks().Cancel(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to cancel task: %w", err)
			}

			fmt.Printf("Cancellation requested for task %s\n", args[0])

			return nil
		},
	}
}

func newTasksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list TASKS_LIST_ID",
		Short: "List the tasks of an organization's tasks list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			tasks, err := client.Tasks().List(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			return outputTaskList(tasks)
		},
	}
}

func outputTask(task *vcd.Task) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(task)
	case OutputFormatYAML:
		return StandardYAMLRenderer(task)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		_ = table.Append("ID", task.ID())
		_ = table.Append("Operation", orDefault(task.Operation))
		_ = table.Append("Status", task.Status)
		_ = table.Append("Started", orDefault(task.StartTime))
		_ = table.Append("Ended", orDefault(task.EndTime))

		if msg := task.ErrorMessage(); msg != "" {
			_ = table.Append("Error", msg)
		}

		_ = table.Render()

		return nil
	}
}

func outputTaskList(tasks []vcd.Task) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(tasks)
	case OutputFormatYAML:
		return StandardYAMLRenderer(tasks)
	default:
		if len(tasks) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, "No tasks found")

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Operation", "Status", "Started")

		for i := range tasks {
			task := &tasks[i]
			_ = table.Append(task.ID(), orDefault(task.Operation), task.Status, orDefault(task.StartTime))
		}

		_ = table.Render()

		return nil
	}
}

// reportTask prints a spawned task ID or waits for its completion when the
// command carries --wait.
func reportTask(ctx context.Context, client vcd.Client, taskID string, wait bool) error {
	if taskID == "" {
		return nil
	}

	if !wait {
		fmt.Printf("Task %s started\n", taskID)

		return nil
	}

	task, err := client.Tasks().Wait(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed waiting for task: %w", err)
	}

	fmt.Printf("Task %s finished: %s\n", taskID, task.Status)

	return nil
}
