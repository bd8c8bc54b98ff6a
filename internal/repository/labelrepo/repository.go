package labelrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/skip2/go-qrcode"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/apiclient"
	"lagerscan/internal/pkg/cache"
	"lagerscan/internal/pkg/logger"
)

// Source indica de onde veio a imagem da etiqueta.
type Source string

const (
	SourceCache   Source = "cache"
	SourceBackend Source = "backend"
	SourceLocal   Source = "local"
)

// Define a chave de cache para etiquetas. O código é imutável, então a imagem também é.
const labelCacheKey = "label:%s"

// localLabelSize é o lado, em pixels, do QR gerado localmente.
const localLabelSize = 256

// Label é a imagem PNG escaneável de um código.
type Label struct {
	Code   string
	PNG    []byte
	Source Source
}

// LabelRepository obtém a imagem da etiqueta usando a estratégia Cache-Aside.
type LabelRepository struct {
	API      *apiclient.Client
	Cache    cache.Client // nil desativa o cache
	CacheTTL time.Duration
	logger   logger.Logger
}

// NewLabelRepository cria e retorna uma nova instância do Repositório de Etiquetas.
func NewLabelRepository(api *apiclient.Client, cacheClient cache.Client, ttl time.Duration, logger logger.Logger) *LabelRepository {
	return &LabelRepository{API: api, Cache: cacheClient, CacheTTL: ttl, logger: logger}
}

// GetLabel devolve a etiqueta do código. Se o endpoint de etiquetas falhar, o QR é gerado localmente
// com o mesmo conteúdo (o próprio código), para que a impressão nunca dependa do backend.
func (r *LabelRepository) GetLabel(ctx context.Context, code string) (Label, error) {
	key := fmt.Sprintf(labelCacheKey, code)

	// --- 1. Cache-Aside (READ) ---
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctx, key)
		if err == nil && isPNG(cached) {
			r.logger.Debug("Etiqueta encontrada no cache.", map[string]interface{}{"code": code})
			return Label{Code: code, PNG: cached, Source: SourceCache}, nil
		}
		if err == nil {
			// Entrada corrompida: descarta antes de buscar de novo.
			r.logger.Warn("Etiqueta inválida no cache, descartando.", map[string]interface{}{"code": code})
			if delErr := r.Cache.Delete(ctx, key); delErr != nil {
				r.logger.Warn("Falha ao descartar etiqueta do cache.", map[string]interface{}{"code": code, "error": delErr.Error()})
			}
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			// Erro real de cache (ex: conexão perdida): registra e segue para o backend.
			r.logger.Warn("Falha ao ler etiqueta do cache.", map[string]interface{}{"code": code, "error": err.Error()})
		}
	}

	// --- 2. Endpoint de etiquetas ---
	label, err := r.fetch(ctx, code)
	if err != nil {
		if !apperror.Is(err, apperror.KindNotFound) && !apperror.Is(err, apperror.KindTransport) {
			return Label{}, err
		}
		r.logger.Warn("Endpoint de etiquetas indisponível, gerando QR localmente.", map[string]interface{}{"code": code, "error": err.Error()})

		png, encErr := qrcode.Encode(code, qrcode.Medium, localLabelSize)
		if encErr != nil {
			return Label{}, apperror.NewInternalError("Falha ao gerar QR localmente.", encErr)
		}
		label = Label{Code: code, PNG: png, Source: SourceLocal}
	}

	// --- 3. Cache-Aside (WRITE) ---
	if r.Cache != nil {
		if setErr := r.Cache.Set(ctx, key, label.PNG, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar etiqueta no cache.", map[string]interface{}{"code": code, "error": setErr.Error()})
		}
	}
	return label, nil
}

func (r *LabelRepository) fetch(ctx context.Context, code string) (Label, error) {
	data, _, err := r.API.Fetch(ctx, "/qrcode/"+url.PathEscape(code))
	if err != nil {
		return Label{}, err
	}
	if !isPNG(data) {
		return Label{}, apperror.NewTransportError("Etiqueta recebida não é PNG", http.StatusOK, nil)
	}
	return Label{Code: code, PNG: data, Source: SourceBackend}, nil
}

func isPNG(data []byte) bool {
	return http.DetectContentType(data) == "image/png"
}
