package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`

	// StorageDriver: mysql или memory (для локального запуска без базы).
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"mysql"`
	DBUser        string `yaml:"db_user" env:"DB_USER"`
	DBPassword    string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost        string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort        int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName        string `yaml:"db_name" env:"DB_NAME" env-default:"autoservice"`
	ParseTime     bool   `yaml:"parse_time" env-default:"true"`

	Auth   `yaml:"auth"`
	MQTT   MQTT   `yaml:"mqtt"`
	CORS   CORS   `yaml:"cors"`
	Lookup Lookup `yaml:"lookup"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type MQTT struct {
	Enabled  bool          `yaml:"enabled" env:"MQTT_ENABLED" env-default:"false"`
	Broker   string        `yaml:"broker" env:"MQTT_BROKER" env-default:"tcp://localhost:1883"`
	ClientID string        `yaml:"client_id" env:"MQTT_CLIENT_ID" env-default:"autoservice"`
	Topic    string        `yaml:"topic" env:"MQTT_TOPIC" env-default:"autoservice/orders/rejected"`
	Timeout  time.Duration `yaml:"timeout" env-default:"5s"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

type Lookup struct {
	MinLength int `yaml:"min_length" env:"LOOKUP_MIN_LENGTH" env-default:"2"`
	Limit     int `yaml:"limit" env:"LOOKUP_LIMIT" env-default:"20"`
}

// MustConfig reads CONFIG_PATH (or ./config/local.yaml) with environment
// overrides. A .env file next to the binary is loaded first when present.
func MustConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot load .env: %s", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
