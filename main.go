package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	_ "github.com/joho/godotenv/autoload"

	"github.com/kova98/postharvester/config"
)

func main() {
	opts := slog.HandlerOptions{Level: config.LogLevel()}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	app := NewApp(logger)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		slog.Info("starting lambda handler")
		lambda.Start(app.Handle)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	err := app.Handle(ctx, nil)
	stop()

	if closeErr := app.Close(); closeErr != nil {
		slog.Error("failed to close database connection", "error", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
