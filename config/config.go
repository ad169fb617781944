package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Direcciones por defecto (Sepolia).
const (
	DefaultEkuboBaseURL      = "https://sepolia-api.ekubo.org"
	DefaultPositionsContract = "0x06a2aee84bb0ed5dded4384ddd0e40e9c1372b818668375ab8e3ec08807417e5"
	DefaultNFTContract       = "0x04afc78d6fec3b122fc1f60276f074e557749df1a77a93416451be72c435120f"
)

// Config es la configuración completa de titan.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Contracts  ContractsConfig  `yaml:"contracts"`
	Starknet   StarknetConfig   `yaml:"starknet"`
	Wallet     WalletConfig     `yaml:"wallet"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// APIConfig controla el cliente HTTP de Ekubo.
type APIConfig struct {
	EkuboBase        string `yaml:"ekubo_base"`
	Retries          int    `yaml:"retries"`
	RetryWaitMillis  int    `yaml:"retry_wait_ms"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_seconds"` // por documento de metadatos
	RateLimitPerSec  int    `yaml:"rate_limit_per_sec"`    // 0 = límites por defecto
}

// ReconcilerConfig controla el pipeline de posiciones.
type ReconcilerConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"` // 0 = una sola pasada
	Concurrency     int `yaml:"concurrency"`
}

// ContractsConfig contiene las direcciones de los contratos de Ekubo.
type ContractsConfig struct {
	Positions string `yaml:"positions"`
	NFT       string `yaml:"nft"`
}

// StarknetConfig controla el nodo JSON-RPC. Sin URL no hay verificaciones
// on-chain.
type StarknetConfig struct {
	RPCURL              string `yaml:"rpc_url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	WaitTimeoutSeconds  int    `yaml:"wait_timeout_seconds"`
}

// WalletConfig describe la sesión de wallet. La firma vive fuera de titan.
type WalletConfig struct {
	Address    string `yaml:"address"`
	ExportPath string `yaml:"export_path"` // archivo donde se escriben las multicalls; vacío = stdout
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío = deshabilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Un path vacío usa solo defaults y entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// RefreshInterval devuelve el intervalo del loop de reconciliación.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Reconciler.IntervalSeconds) * time.Second
}

// RetryWait devuelve la espera base entre reintentos.
func (c *Config) RetryWait() time.Duration {
	return time.Duration(c.API.RetryWaitMillis) * time.Millisecond
}

// HTTPTimeout devuelve el timeout del cliente HTTP.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// FetchTimeout devuelve el timeout por documento de metadatos.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.API.FetchTimeoutSecs) * time.Second
}

// PollInterval devuelve cada cuánto se consulta un receipt.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Starknet.PollIntervalSeconds) * time.Second
}

// WaitTimeout devuelve cuánto se espera un receipt como máximo.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Starknet.WaitTimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("EKUBO_BASE_URL"); v != "" {
		cfg.API.EkuboBase = v
	}
	if v := os.Getenv("TITAN_WALLET_ADDRESS"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := os.Getenv("TITAN_DB_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("STARKNET_RPC_URL"); v != "" {
		cfg.Starknet.RPCURL = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.EkuboBase == "" {
		cfg.API.EkuboBase = DefaultEkuboBaseURL
	}
	if cfg.API.Retries <= 0 {
		cfg.API.Retries = 3
	}
	if cfg.API.RetryWaitMillis <= 0 {
		cfg.API.RetryWaitMillis = 500
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.API.FetchTimeoutSecs <= 0 {
		cfg.API.FetchTimeoutSecs = 8
	}
	if cfg.Reconciler.IntervalSeconds < 0 {
		cfg.Reconciler.IntervalSeconds = 0
	}
	if cfg.Reconciler.Concurrency <= 0 {
		cfg.Reconciler.Concurrency = 16
	}
	if cfg.Contracts.Positions == "" {
		cfg.Contracts.Positions = DefaultPositionsContract
	}
	if cfg.Contracts.NFT == "" {
		cfg.Contracts.NFT = DefaultNFTContract
	}
	if cfg.Starknet.PollIntervalSeconds <= 0 {
		cfg.Starknet.PollIntervalSeconds = 3
	}
	if cfg.Starknet.WaitTimeoutSeconds <= 0 {
		cfg.Starknet.WaitTimeoutSeconds = 120
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "titan.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
