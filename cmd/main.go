package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/text/language"

	// Nossos pacotes de infraestrutura e utilitários
	"lagerscan/config"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/apiclient"
	"lagerscan/internal/pkg/cache"
	"lagerscan/internal/pkg/camera"
	"lagerscan/internal/pkg/dictation"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
	"lagerscan/internal/pkg/printer"

	// Camadas para Injeção de Dependências
	"lagerscan/internal/cli/item"     // Comandos
	"lagerscan/internal/cli/location" // Comandos
	"lagerscan/internal/cli/scan"     // Comandos
	"lagerscan/internal/repository/itemrepo"
	"lagerscan/internal/repository/labelrepo"
	"lagerscan/internal/repository/locationrepo"
	"lagerscan/internal/router" // Roteador central
	"lagerscan/internal/service/creationservice"
	"lagerscan/internal/service/itemservice"
	"lagerscan/internal/service/listingservice"
	"lagerscan/internal/service/locationservice"
	"lagerscan/internal/service/scanservice"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in io.Reader, out io.Writer) int {
	// 1. Configuração e Inicialização
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("❌ Configuração inválida: %v", err)
		return 2
	}
	log := logger.NewLogger(cfg.LogLevel)
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer zl.Sync()
	}
	log.Debug("Configurações carregadas.", map[string]interface{}{"api": cfg.APIBaseURL, "env": cfg.Environment})

	notifier := notify.NewWriterNotifier(out)

	// 2. Recursos de Infraestrutura

	// A. Cache de etiquetas (Redis). Opcional: sem ele as imagens vêm sempre do backend.
	var cacheClient cache.Client
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis indisponível, seguindo sem cache de etiquetas.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		} else {
			defer redisClient.Close()
			cacheClient = redisClient
			log.Debug("Conexão Redis estabelecida.", nil)
		}
	}

	// B. Clientes HTTP do backend (API e imagens de etiqueta)
	api := apiclient.New(cfg.APIBaseURL, nil, cfg.APITimeout, log)
	labelAPI := apiclient.New(cfg.LabelBaseURL, nil, cfg.APITimeout, log)

	// C. Ditado: sem comando configurado, a sessão avisa que o recurso não é suportado.
	var recognizer dictation.Recognizer
	if cfg.DictationCommand != "" {
		recognizer = &dictation.CommandRecognizer{Command: cfg.DictationCommand}
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	itemRepo := itemrepo.NewItemRepository(api, log)
	locationRepo := locationrepo.NewLocationRepository(api, log)
	labelRepo := labelrepo.NewLabelRepository(labelAPI, cacheClient, cfg.LabelCacheTTL, log)

	// B. Serviços
	itemSvc := itemservice.NewService(itemRepo, log)
	locationSvc := locationservice.NewService(locationRepo, log)
	labelPrinter := printer.NewPrinter(cfg.LabelOutputDir, cfg.LabelPrintSize, log)
	collation := language.Make(cfg.DictationLocale)

	newFlow := func() *creationservice.Flow {
		speech := dictation.NewSession(recognizer, cfg.DictationLocale, cfg.DictationGuard, notifier, log)
		return creationservice.NewFlow(itemSvc, locationSvc, labelRepo, labelPrinter, speech, notifier, log)
	}
	newView := func() *listingservice.View {
		return listingservice.NewView(itemSvc, notifier, log, collation)
	}
	newSession := func() *scanservice.Session {
		return scanservice.NewSession(itemSvc, notifier, cfg.ScanDebounce, time.Now, log)
	}
	cameraFor := func(typed io.Reader) (camera.Capability, bool) {
		switch {
		case cfg.ScannerBridgeURL != "":
			return camera.NewWSBridge(cfg.ScannerBridgeURL, log), false
		case cfg.ScannerDevice != "":
			return camera.NewDeviceWedge(cfg.ScannerDevice), false
		}
		return camera.NewReaderWedge("teclado", typed), true
	}

	// C. Handlers (Camada de Apresentação)
	itemHandler := item.NewHandler(itemSvc, newFlow, newView, notifier, out, log)
	locationHandler := location.NewHandler(locationSvc, notifier, out, log)
	scanHandler := scan.NewHandler(newSession, cameraFor, notifier, in, out, log)

	r := router.NewRouter(itemHandler, locationHandler, scanHandler, out)

	// 4. Execução com cancelamento por sinal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Dispatch(ctx, args); err != nil {
		if ctx.Err() != nil {
			return 130
		}
		log.Debug("Comando terminou com erro.", map[string]interface{}{"category": apperror.KindOf(err).String(), "error": err.Error()})
		return 1
	}
	return 0
}
