package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"parcelhub/internal/configs"
	"parcelhub/internal/delivery/kafka"
)

func main() {
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("error loading config: %s", err)
	}
	logrus.Print("config loaded")

	pub := kafka.NewPublisher(cfg.KafkaBrokersSlice(), cfg.KafkaFeedTopic)
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			logrus.Errorf("publisher close: %v", cerr)
		}
	}()
	logrus.Print("connected to kafka")

	f, err := os.Open(cfg.FeedSamplePath)
	if err != nil {
		logrus.Fatalf("open json file: %s", err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		logrus.Fatalf("read json file: %s", err)
	}

	if err := pub.Publish(context.Background(), body); err != nil {
		logrus.Fatalf("publish failed: %s", err)
	}
	logrus.Print("published sample package JSON to the feed topic")
}
