package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

func taskDoc(taskID, status, detail string) string {
	doc := fmt.Sprintf(`<Task xmlns="http://www.vmware.com/vcloud/v1.5" href="https://vcloud.example.com/api/task/%s" status="%s" operationName="vappDeploy"`, taskID, status)
	if detail == "" {
		return doc + `/>`
	}

	return doc + fmt.Sprintf(`><Error message="%s" majorErrorCode="500" minorErrorCode="INTERNAL_SERVER_ERROR"/></Task>`, detail)
}

func TestTasksGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/task/task-1", r.URL.Path)
		_, _ = w.Write([]byte(taskDoc("task-1", vcd.TaskStatusSuccess, "")))
	}))
	defer server.Close()

	tasks := NewTasksClient(http.NewClient(server.URL, auth.NewTokenSession("token")), time.Millisecond, 0)

	task, err := tasks.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID())
	assert.Equal(t, vcd.TaskStatusSuccess, task.Status)
	assert.Equal(t, "vappDeploy", task.Operation)
	assert.False(t, task.Running())
}

func TestTasksWaitPollsUntilTerminal(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		status := vcd.TaskStatusRunning
		if polls.Add(1) >= 3 {
			status = vcd.TaskStatusSuccess
		}

		_, _ = w.Write([]byte(taskDoc("task-1", status, "")))
	}))
	defer server.Close()

	tasks := NewTasksClient(http.NewClient(server.URL, auth.NewTokenSession("token")), 5*time.Millisecond, 0)

	task, err := tasks.Wait(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, vcd.TaskStatusSuccess, task.Status)
	assert.Equal(t, int32(3), polls.Load())
}

func TestTasksWaitErroredTask(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(taskDoc("task-1", vcd.TaskStatusError, "disk quota exceeded")))
	}))
	defer server.Close()

	tasks := NewTasksClient(http.NewClient(server.URL, auth.NewTokenSession("token")), time.Millisecond, 0)

	task, err := tasks.Wait(context.Background(), "task-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcd.ErrTaskFailed)
	assert.Contains(t, err.Error(), "disk quota exceeded")
	require.NotNil(t, task)
	assert.Equal(t, vcd.TaskStatusError, task.Status)
}

func TestTasksWaitTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(taskDoc("task-1", vcd.TaskStatusRunning, "")))
	}))
	defer server.Close()

	tasks := NewTasksClient(http.NewClient(server.URL, auth.NewTokenSession("token")), 5*time.Millisecond, 30*time.Millisecond)

	_, err := tasks.Wait(context.Background(), "task-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcd.ErrTaskTimeout)
}

func TestTasksCancel(t *testing.T) {
	t.Parallel()

	var (
		method string
		path   string
	)

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(nethttp.StatusNoContent)
	}))
	defer server.Close()

	tasks := NewTasksClient(http.NewClient(server.URL, auth.NewTokenSession("token")), time.Millisecond, 0)

	require.NoError(t, tasks.Cancel(context.Background(), "task-1"))
	assert.Equal(t, nethttp.MethodPost, method)
	assert.Equal(t, "/api/task/task-1/action/cancel", path)
}

func TestTasksList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/tasksList/org-1", r.URL.Path)
		_, _ = w.Write([]byte(`<TasksList xmlns="http://www.vmware.com/vcloud/v1.5">` +
			taskDoc("task-1", vcd.TaskStatusSuccess, "") +
			taskDoc("task-2", vcd.TaskStatusRunning, "") +
			`</TasksList>`))
	}))
	defer server.Close()

	tasks := NewTasksClient(http.NewClient(server.URL, auth.NewTokenSession("token")), time.Millisecond, 0)

	list, err := tasks.List(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "task-1", list[0].ID())
	assert.True(t, list[1].Running())
}
