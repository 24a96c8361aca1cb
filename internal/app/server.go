package app

import (
	"net"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Serve runs router on ln until stop is closed. It then stops accepting requests, waits for
// in-flight requests and running jobs, and returns. If the listener exits first, the worker
// is stopped and the listener's error is returned.
func Serve(a *App, router *fiber.App, ln net.Listener, stop <-chan struct{}) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- router.Listener(ln)
	}()

	select {
	case err := <-serveErr:
		a.Log.Warn("listener exited before shutdown", zap.Error(err))
		a.Worker.Stop()
		return err
	case <-stop:
	}

	a.Log.Info("shutting down server")
	if err := router.Shutdown(); err != nil {
		a.Log.Error("server forced to shutdown", zap.Error(err))
	}

	a.Worker.Stop()

	if err := <-serveErr; err != nil {
		a.Log.Warn("listener closed with error", zap.Error(err))
	}

	a.Log.Info("server stopped")
	return nil
}
