package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind é a enumeração fechada das categorias de erro que a aplicação reconhece.
// Toda resposta bruta do transporte é traduzida para um destes valores em um único ponto (FromHTTPStatus).
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransport
	KindCapabilityUnavailable
)

// String devolve o nome da categoria, útil em logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindTransport:
		return "TRANSPORT_ERROR"
	case KindCapabilityUnavailable:
		return "CAPABILITY_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// AppError é a interface central para todos os erros customizados do lagerscan.
// Ela permite que a camada de apresentação (CLI) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND")
	Kind() Kind       // Valor da enumeração fechada
	Message() string  // Mensagem curta, sem prefixo, para avisos ao usuário
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada (campo obrigatório vazio).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return KindValidation.String() }
func (e *ValidationError) Kind() Kind       { return KindValidation }
func (e *ValidationError) Message() string  { return e.Msg }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso (código, ID ou local desconhecido).
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return KindNotFound.String() }
func (e *NotFoundError) Kind() Kind       { return KindNotFound }
func (e *NotFoundError) Message() string  { return e.Msg }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito de estado (e.g., baixa de um item já inativo).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return KindConflict.String() }
func (e *ConflictError) Kind() Kind       { return KindConflict }
func (e *ConflictError) Message() string  { return e.Msg }
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// TransportError representa backend inacessível ou resposta malformada.
type TransportError struct {
	Msg    string
	Status int   // Código HTTP recebido, 0 quando a requisição nem chegou ao servidor
	Err    error // Erro original subjacente (e.g., erro de rede ou de decodificação JSON)
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Erro de Transporte: %s: %s", e.Msg, e.Err.Error())
	}
	return fmt.Sprintf("Erro de Transporte: %s", e.Msg)
}
func (e *TransportError) Category() string { return KindTransport.String() }
func (e *TransportError) Kind() Kind       { return KindTransport }
func (e *TransportError) Message() string  { return e.Msg }
func (e *TransportError) Unwrap() error    { return e.Err }

// NewTransportError cria um erro de transporte.
func NewTransportError(msg string, status int, err error) AppError {
	return &TransportError{Msg: msg, Status: status, Err: err}
}

// CapabilityUnavailableError representa câmera ou microfone ausentes ou com permissão negada.
type CapabilityUnavailableError struct {
	Msg string
	Err error
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("Recurso indisponível: %s", e.Msg)
}
func (e *CapabilityUnavailableError) Category() string { return KindCapabilityUnavailable.String() }
func (e *CapabilityUnavailableError) Kind() Kind       { return KindCapabilityUnavailable }
func (e *CapabilityUnavailableError) Message() string  { return e.Msg }
func (e *CapabilityUnavailableError) Unwrap() error    { return e.Err }

// NewCapabilityUnavailableError cria um erro de capacidade de hardware/SO indisponível.
func NewCapabilityUnavailableError(msg string, err error) AppError {
	return &CapabilityUnavailableError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no cliente (lógica ou código não esperado).
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return KindInternal.String() }
func (e *InternalError) Kind() Kind       { return KindInternal }
func (e *InternalError) Message() string  { return e.Msg }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro interno.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// --- Tradução (ponto único) ---

// FromHTTPStatus traduz o status de uma resposta não-2xx do backend para a taxonomia.
// detail é o texto de erro enviado pelo backend (pode ser vazio).
func FromHTTPStatus(status int, detail string) AppError {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return NewNotFoundError(detail)
	case status == http.StatusConflict:
		return NewConflictError(detail)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewValidationError(detail)
	default:
		return NewTransportError(detail, status, nil)
	}
}

// KindOf devolve a categoria de qualquer erro; erros não tipados contam como internos.
func KindOf(err error) Kind {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindInternal
}

// Is informa se err pertence à categoria k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Notice converte um erro em um aviso curto para o usuário.
// Quando o erro não traz uma mensagem aproveitável, usa fallback.
func Notice(err error, fallback string) string {
	var appErr AppError
	if !stderrors.As(err, &appErr) {
		return fallback
	}

	switch appErr.Kind() {
	case KindTransport, KindInternal:
		// Mensagens de rede/decodificação não ajudam o operador no armazém.
		return fallback
	}

	if msg := appErr.Message(); msg != "" {
		return msg
	}
	return fallback
}

// Wrap mantém erros já classificados e embrulha os demais em InternalError com msg.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return NewInternalError(msg, err)
}
