package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"unify-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"unify"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Graph Database (Memgraph) - optional provenance projection
	GraphProjectionEnabled bool   `env:"GRAPH_PROJECTION_ENABLED" env-default:"false"`
	GraphDBHost            string `env:"GRAPH_DB_HOST" env-default:"localhost"`
	GraphDBPort            int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser            string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword        string `env:"GRAPH_DB_PASSWORD" env-default:""`

	// Kafka Producer (golden record lifecycle events)
	KafkaEventsEnabled bool     `env:"KAFKA_EVENTS_ENABLED" env-default:"true"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic   string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"golden-record-events"`
	KafkaBatchSize     int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout  int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks  int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression   string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching
	MatchThreshold     float64 `env:"MATCH_THRESHOLD" env-default:"0.75"`
	MatchListLimit     int     `env:"MATCH_LIST_LIMIT" env-default:"50"`
	BlockingKeys       string  `env:"BLOCKING_KEYS" env-default:"email;company_name;phone;last_name+postal_code"`
	MatchMethodVersion string  `env:"MATCH_METHOD_VERSION" env-default:"rule_based_v1"`
}
