package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
)

// RequestIDHeader é o header com o ID de correlação enviado em cada chamada.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody limita quanto do corpo de erro é lido.
const maxErrorBody = 64 << 10

// Client é o cliente HTTP compartilhado pelos repositórios.
// É aqui, e somente aqui, que respostas brutas do transporte viram erros da taxonomia.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration // zero = sem timeout
	logger  logger.Logger
}

// New cria um Client. httpClient nil usa http.DefaultClient.
func New(baseURL string, httpClient *http.Client, timeout time.Duration, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Timeout: timeout,
		logger:  log,
	}
}

// Do executa uma requisição JSON. body nil envia sem corpo; out nil descarta a resposta.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, query, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Resposta malformada do backend.", err)
		return apperror.NewTransportError("Resposta malformada do backend", resp.StatusCode, err)
	}
	return nil
}

// Fetch executa um GET e devolve o corpo bruto (e.g., a imagem PNG de uma etiqueta).
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, nil, "*/*")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperror.NewTransportError("Falha ao ler resposta do backend", resp.StatusCode, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// send monta a requisição, aplica o timeout opcional e traduz status não-2xx.
// Em caso de sucesso o chamador fecha resp.Body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}, accept string) (*http.Response, error) {
	cancel := context.CancelFunc(func() {})
	if c.Timeout > 0 {
		// O corpo ainda será lido pelo chamador; o cancel fica atrelado ao fechamento.
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			cancel()
			return nil, apperror.NewInternalError("Falha ao serializar requisição.", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		cancel()
		return nil, apperror.NewInternalError("Falha ao montar requisição.", err)
	}
	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Enviando requisição ao backend.", map[string]interface{}{
		"method": method, "path": path, "request_id": requestID,
	})

	resp, err := c.HTTP.Do(req)
	if err != nil {
		cancel()
		c.logger.Warn("Backend inacessível.", map[string]interface{}{"path": path, "request_id": requestID, "error": err.Error()})
		return nil, apperror.NewTransportError("Backend inacessível", 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		detail := readErrorDetail(resp.Body)
		c.logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d.", resp.StatusCode), map[string]interface{}{
			"path": path, "request_id": requestID, "detail": detail,
		})
		return nil, apperror.FromHTTPStatus(resp.StatusCode, detail)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// readErrorDetail extrai a mensagem do corpo de erro, aceitando JSON ou texto puro.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	// {"detail": [...]} (lista de erros de validação) não decodifica e cai no texto bruto.
	var body domain.ErrorResponse
	if json.Unmarshal(raw, &body) == nil {
		if text := body.Text(); text != "" {
			return text
		}
	}
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
