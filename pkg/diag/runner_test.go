package diag

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

func stubLookPath(t *testing.T) {
	t.Helper()

	restore := lookPath
	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	t.Cleanup(func() { lookPath = restore })
}

func testRequest() *models.DiagRequest {
	return &models.DiagRequest{
		ID:     "test-id",
		Tool:   models.ToolPing,
		Target: "8.8.8.8",
		Count:  4,
	}
}

func TestRunnerSuccess(t *testing.T) {
	stubLookPath(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := config.NewDefault().Tools
	mockExec := NewMockCommandRunner(ctrl)
	runner := NewRunnerWithExec(&cfg, mockExec)

	mockExec.EXPECT().
		Run(gomock.Any(), "ping", "-c", "4", "8.8.8.8").
		Return([]byte("4 packets transmitted, 4 received"), 0, nil)

	result, err := runner.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Output, "4 packets transmitted")
	assert.Equal(t, models.ToolPing, result.Tool)
}

func TestRunnerProcessFailureIsResult(t *testing.T) {
	stubLookPath(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := config.NewDefault().Tools
	mockExec := NewMockCommandRunner(ctrl)
	runner := NewRunnerWithExec(&cfg, mockExec)

	mockExec.EXPECT().
		Run(gomock.Any(), "ping", "-c", "4", "8.8.8.8").
		Return([]byte("ping: unknown host"), 2, nil)

	result, err := runner.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
}

func TestRunnerTimeout(t *testing.T) {
	stubLookPath(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := config.NewDefault().Tools
	mockExec := NewMockCommandRunner(ctrl)
	runner := NewRunnerWithExec(&cfg, mockExec)

	mockExec.EXPECT().
		Run(gomock.Any(), "ping", "-c", "4", "8.8.8.8").
		Return(nil, 0, context.DeadlineExceeded)

	result, err := runner.Run(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Nil(t, result, "timeout must never also produce a result")
}

func TestRunnerConcurrencyCap(t *testing.T) {
	stubLookPath(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := config.NewDefault().Tools
	cfg.MaxConcurrent = 1

	mockExec := NewMockCommandRunner(ctrl)
	runner := NewRunnerWithExec(&cfg, mockExec)

	holding := make(chan struct{})
	release := make(chan struct{})

	mockExec.EXPECT().
		Run(gomock.Any(), "ping", "-c", "4", "8.8.8.8").
		DoAndReturn(func(context.Context, string, ...string) ([]byte, int, error) {
			close(holding)
			<-release
			return []byte("ok"), 0, nil
		})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := runner.Run(context.Background(), testRequest())
		assert.NoError(t, err)
	}()

	select {
	case <-holding:
	case <-time.After(time.Second):
		t.Fatal("first run never started")
	}

	// Cap reached: second request is rejected immediately, no spawn.
	_, err := runner.Run(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	wg.Wait()
}

func TestRunnerNoSpawnOnMissingTool(t *testing.T) {
	restore := lookPath
	lookPath = func(string) (string, error) { return "", assert.AnError }

	t.Cleanup(func() { lookPath = restore })

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := config.NewDefault().Tools
	mockExec := NewMockCommandRunner(ctrl)
	runner := NewRunnerWithExec(&cfg, mockExec)

	// No EXPECT on mockExec: any spawn attempt fails the test.
	_, err := runner.Run(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrToolUnavailable)
}

func TestBoundedWriterTruncates(t *testing.T) {
	w := &boundedWriter{w: &bytes.Buffer{}, remaining: 8}

	n, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "writer must report full length to the process")
	assert.Equal(t, "01234567", w.w.String())

	n, err = w.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "01234567", w.w.String())
}

func TestArgsFor(t *testing.T) {
	ping := testRequest()
	assert.Equal(t, []string{"-c", "4", "8.8.8.8"}, argsFor(ping))

	trace := &models.DiagRequest{Tool: models.ToolTraceroute, Target: "example.com", Count: 30}
	assert.Equal(t, []string{"-m", "30", "example.com"}, argsFor(trace))
}
