package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarthire/resume-matcher/internal/models"
	"smarthire/resume-matcher/internal/services"
)

func TestServeDrainsRunningJobsBeforeReturning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	t.Cleanup(srv.Close)

	a, err := Build(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)
	defer a.Close()
	a.Worker.Start(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	stop := make(chan struct{})
	served := make(chan error, 1)
	go func() {
		served <- Serve(a, BuildRouter(a), ln, stop)
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/api/v1/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	eval := &models.Evaluation{}
	require.NoError(t, a.EvalRepo.Create(eval))
	require.NoError(t, a.Worker.EnqueueJob(services.EvaluationJob{
		ID:             eval.ID,
		ResumeText:     "Go engineer building REST services",
		JobDescription: "Go engineer",
	}))

	require.Eventually(t, func() bool {
		stored, err := a.EvalRepo.FindByID(eval.ID)
		return err == nil && stored.Status == models.StatusProcessing
	}, 2*time.Second, 5*time.Millisecond)

	close(stop)

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after stop")
	}

	stored, err := a.EvalRepo.FindByID(eval.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	_, err = client.Get("http://" + ln.Addr().String() + "/api/v1/health")
	assert.Error(t, err)
}

func TestServeStopsWorkerWhenListenerExits(t *testing.T) {
	a, err := Build(context.Background(), testConfig("http://127.0.0.1:1"), nil)
	require.NoError(t, err)
	defer a.Close()
	a.Worker.Start(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = Serve(a, BuildRouter(a), ln, make(chan struct{}))
	}()

	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after the listener closed")
	}

	err = a.Worker.EnqueueJob(services.EvaluationJob{ID: uuid.New(), ResumeText: "r", JobDescription: "j"})
	assert.ErrorIs(t, err, services.ErrQueueFull)
}
