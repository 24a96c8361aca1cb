package app

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smarthire/resume-matcher/internal/handlers"
	"smarthire/resume-matcher/internal/metrics"
	"smarthire/resume-matcher/internal/models"
)

// BuildRouter constructs the Fiber app with middleware and every route.
func BuildRouter(a *App) *fiber.App {
	cfg := a.Config

	router := fiber.New(fiber.Config{
		AppName:      "SmartHire Resume Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.Timeout*time.Duration(cfg.LLM.MaxAttempts) + 30*time.Second,
		// Multipart overhead on top of the file itself.
		BodyLimit:    int(cfg.Server.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	router.Use(recover.New())
	router.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	if cfg.Server.RateLimitPerMin > 0 {
		router.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.RateLimitPerMin,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() != fiber.MethodPost
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "rate limit exceeded, try again later",
					Code:  "rate_limited",
				})
			},
		}))
	}

	metrics.Init()
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(router,
		handlers.NewEvaluationHandler(a.Evaluator, a.EvalRepo, a.Worker, cfg.Server.MaxFileSize, a.Log.Named("http")),
		handlers.NewResultHandler(a.EvalRepo),
	)

	return router
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error: msg,
		Code:  fmt.Sprintf("http_%d", code),
	})
}
