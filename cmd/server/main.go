package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"parcelhub/internal/configs"
	httpdelivery "parcelhub/internal/delivery/http"
	"parcelhub/internal/delivery/kafka"
	"parcelhub/internal/repository"
	"parcelhub/internal/repository/cache"
	"parcelhub/internal/repository/mysql"
	"parcelhub/internal/service"
	"parcelhub/internal/storage"
)

// @title parcelhub package service
// @version 1.0
// @description Stores package aggregates (package + products + invoice attachment) transactionally in MySQL, imports aggregates from a kafka feed and serves them over HTTP.

// @host localhost:8080
// @basePath /

func main() {
	_ = godotenv.Load()
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("config load: %s", err)
	}
	logrus.Print("config parsed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := mysql.ConnectDB(mysql.Config{
		Host:     cfg.MysqlHost,
		Port:     cfg.MysqlPort,
		Username: cfg.MysqlUser,
		Password: cfg.MysqlPass,
		DbName:   cfg.MysqlDB,
	})
	if err != nil {
		logrus.Fatalf("mysql connect: %s", err)
	}
	defer func() {
		if derr := db.Close(); derr != nil {
			logrus.Errorf("db close: %v", derr)
		}
	}()
	logrus.Print("connected to mysql")

	var kv cache.KV
	if cfg.CacheShards > 0 {
		kv = cache.NewShardedCache(cache.WithShards(cfg.CacheShards), cache.WithShardTTL(cfg.CacheTTL))
	} else {
		kv = cache.NewCache(cache.WithTTL(cfg.CacheTTL))
	}

	store := mysql.NewPackageMysql(db)
	repo := repository.NewRepository(store, cache.NewPackageCache(kv))
	invoices := storage.NewInvoiceStore(cfg.UploadDir, store)
	events := kafka.NewPublisher(cfg.KafkaBrokersSlice(), cfg.KafkaEventTopic)
	defer func() {
		if perr := events.Close(); perr != nil {
			logrus.Errorf("event publisher close: %v", perr)
		}
	}()

	svc := service.NewService(repo, invoices, events, service.Options{
		MaxAttachmentBytes: cfg.MaxUploadBytes,
		AttachmentMIME:     cfg.InvoiceMIME,
	})

	if err := svc.WarmCache(); err != nil {
		logrus.Fatalf("warm cache: %s", err)
	}
	logrus.Print("cache warmed from db")

	consumer := kafka.NewConsumer(kafka.Config{
		Brokers: cfg.KafkaBrokersSlice(),
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.KafkaFeedTopic,
		DLQ:     cfg.KafkaFeedTopic + "-dlq",
	}, svc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Subscribe(ctx); err != nil {
			logrus.Errorf("consumer stopped: %v", err)
			cancel()
		}
	}()
	logrus.Print("feed subscription started")

	h := httpdelivery.NewHandler(svc, httpdelivery.Options{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		InvoiceMIME:    cfg.InvoiceMIME,
	})
	srv := new(httpdelivery.Server)

	go func() {
		if err := srv.Run(cfg.HTTPAddr, h.InitRoutes()); err != nil {
			logrus.Errorf("http run: %v", err)
			cancel()
		}
	}()
	logrus.Printf("http server started on %s", cfg.HTTPAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logrus.Print("shutdown signal received")
	case <-ctx.Done():
		logrus.Print("context canceled, shutting down")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("http shutdown: %s", err)
	}

	if err := consumer.Close(); err != nil {
		logrus.Errorf("consumer close: %s", err)
	}

	wg.Wait()
	logrus.Print("service stopped")
}
