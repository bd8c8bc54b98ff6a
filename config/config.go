package config

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config armazena todas as configurações do cliente lagerscan.
// Os campos cobrem o backend remoto, o cache de etiquetas, o scanner e o ditado.
type Config struct {
	// Geral
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"warn"`

	// Backend (API de itens e armazéns)
	APIBaseURL   string `envconfig:"API_BASE_URL" default:"http://lager.home/api"`
	LabelBaseURL string `envconfig:"LABEL_BASE_URL"` // vazio = mesmo host da API
	// Zero significa sem timeout: as chamadas de rede não impõem prazo por padrão.
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"0s"`

	// Cache de etiquetas (Redis). Vazio desativa o cache.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	LabelCacheTTL time.Duration `envconfig:"LABEL_CACHE_TTL" default:"24h"`

	// Scanner
	ScanDebounce     time.Duration `envconfig:"SCAN_DEBOUNCE" default:"300ms"`
	ScannerBridgeURL string        `envconfig:"SCANNER_BRIDGE_URL"` // ws://... da ponte de câmera
	ScannerDevice    string        `envconfig:"SCANNER_DEVICE"`     // arquivo de um leitor "keyboard wedge"

	// Ditado (speech-to-text externo)
	DictationCommand string        `envconfig:"DICTATION_COMMAND"`
	DictationLocale  string        `envconfig:"DICTATION_LOCALE" default:"de-DE"`
	DictationGuard   time.Duration `envconfig:"DICTATION_GUARD" default:"3500ms"`

	// Etiquetas impressas
	LabelOutputDir string `envconfig:"LABEL_OUTPUT_DIR" default:"labels"`
	LabelPrintSize int    `envconfig:"LABEL_PRINT_SIZE" default:"350"` // lado do QR em pixels
}

// LoadConfig carrega o .env (se existir) e depois as variáveis de ambiente.
func LoadConfig() (*Config, error) {
	// O godotenv.Load() procura por um arquivo chamado .env no diretório atual.
	// A ausência do arquivo não é erro: as variáveis podem vir do ambiente do sistema.
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.LabelBaseURL == "" {
		cfg.LabelBaseURL = cfg.APIBaseURL
	}
	cfg.LabelBaseURL = strings.TrimRight(cfg.LabelBaseURL, "/")

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return nil, err
	}
	if cfg.LabelPrintSize <= 0 {
		cfg.LabelPrintSize = 350
	}
	return &cfg, nil
}

// IsProduction informa se o cliente roda em produção.
func (c *Config) IsProduction() bool {
	return c != nil && c.Environment == "production"
}
