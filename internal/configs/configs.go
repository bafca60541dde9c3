package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	KafkaBrokers    string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaFeedTopic  string `env:"KAFKA_FEED_TOPIC" envDefault:"package-feed"`
	KafkaEventTopic string `env:"KAFKA_EVENT_TOPIC" envDefault:"package-events"`
	KafkaGroupID    string `env:"KAFKA_GROUP_ID" envDefault:"parcelhub"`

	MysqlHost string `env:"MYSQL_HOST" envDefault:"localhost"`
	MysqlPort string `env:"MYSQL_PORT" envDefault:"3306"`
	MysqlUser string `env:"MYSQL_USER" envDefault:"root"`
	MysqlPass string `env:"MYSQL_PASSWORD" envDefault:""`
	MysqlDB   string `env:"MYSQL_DB" envDefault:"parcelhub"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads/invoices"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"2097152"`
	InvoiceMIME    string `env:"INVOICE_MIME" envDefault:"application/pdf"`

	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"0"`
	CacheShards int           `env:"CACHE_SHARDS" envDefault:"0"`

	FeedSamplePath string `env:"FEED_SAMPLE_PATH" envDefault:"web/package.json"`
}

func LoadConfig(_ string) (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	return c, nil
}

func (c Config) KafkaBrokersSlice() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) MysqlDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.MysqlUser,
		c.MysqlPass,
		c.MysqlHost,
		c.MysqlPort,
		c.MysqlDB,
	)
}
