package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// TasksClient implements vcd.TasksClient.
type TasksClient struct {
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewTasksClient creates a new tasks client. A pollTimeout of zero polls
// without bound.
func NewTasksClient(httpClient *http.Client, pollInterval, pollTimeout time.Duration) *TasksClient {
	return &TasksClient{
		httpClient:   httpClient,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// Get implements vcd.TasksClient.Get.
func (c *TasksClient) Get(ctx context.Context, taskID string) (*vcd.Task, error) {
	resp, err := c.httpClient.Get(ctx, "/task/"+taskID)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}

	var task vcd.Task

	err = xml.Unmarshal(resp.Body, &task)
	if err != nil {
		return nil, fmt.Errorf("parsing task: %w", err)
	}

	return &task, nil
}

// Wait implements vcd.TasksClient.Wait. It polls the task with a fixed
// delay until it leaves the running state. Any terminal status other than
// "error" counts as completion; "error" surfaces the server's detail
// wrapped in vcd.ErrTaskFailed.
func (c *TasksClient) Wait(ctx context.Context, taskID string) (*vcd.Task, error) {
	pollCtx := ctx

	if c.pollTimeout > 0 {
		var cancel context.CancelFunc

		pollCtx, cancel = context.WithTimeout(ctx, c.pollTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// First check immediately
	task, err := c.Get(pollCtx, taskID)
	if err != nil {
		return nil, fmt.Errorf("getting task status: %w", err)
	}

	for task.Running() {
		select {
		case <-pollCtx.Done():
			return task, fmt.Errorf("%w: %w", vcd.ErrTaskTimeout, pollCtx.Err())
		case <-ticker.C:
			task, err = c.Get(pollCtx, taskID)
			if err != nil {
				return nil, fmt.Errorf("getting task status: %w", err)
			}
		}
	}

	if task.Status == vcd.TaskStatusError {
		return task, fmt.Errorf("%w: %s", vcd.ErrTaskFailed, task.ErrorMessage())
	}

	return task, nil
}

// Cancel implements vcd.TasksClient.Cancel. The server marks the task for
// cancellation; nothing useful comes back.
func (c *TasksClient) Cancel(ctx context.Context, taskID string) error {
	_, err := c.httpClient.Post(ctx, "/task/"+taskID+"/action/cancel", nil, "")
	if err != nil {
		return fmt.Errorf("canceling task: %w", err)
	}

	return nil
}

// List implements vcd.TasksClient.List.
func (c *TasksClient) List(ctx context.Context, tasksListID string) ([]vcd.Task, error) {
	resp, err := c.httpClient.Get(ctx, "/tasksList/"+tasksListID)
	if err != nil {
		return nil, fmt.Errorf("getting tasks list: %w", err)
	}

	var list vcd.TasksList

	err = xml.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing tasks list: %w", err)
	}

	return list.Tasks, nil
}
