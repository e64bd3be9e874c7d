package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mediakit/config"
	"mediakit/db"
	"mediakit/disk"
	"mediakit/internal/service"
	"mediakit/model"

	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := config.SetupLogger(); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	conn, err := db.New(&model.Asset{})
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}

	var dsk disk.Disk

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch v.GetString("storage.type") {
	case "s3":
		dsk, err = disk.NewS3(ctx)
		if err != nil {
			zap.L().Fatal("Failed to set up S3 storage", zap.Error(err))
		}
	default:
		dsk = disk.NewLocal(v.GetString("storage.root"))
	}

	factory, err := service.NewFactory(dsk)
	if err != nil {
		zap.L().Fatal("Invalid attachment configuration", zap.Error(err))
	}

	if *config.Refresh {
		if err := service.Refresh(ctx, conn, factory); err != nil {
			zap.L().Fatal("Refresh failed", zap.Error(err))
		}
		return
	}

	queue := service.NewQueueWorker()
	queue.StartWorkerPool(ctx)

	zap.L().Info("Queue worker starting",
		zap.String("storage", v.GetString("storage.type")),
		zap.Int("workers", v.GetInt("queue.workers")))

	service.NewScanner(conn, factory, queue).Run(ctx)

	zap.L().Info("Shutting down")
}
