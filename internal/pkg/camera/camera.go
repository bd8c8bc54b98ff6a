package camera

import "context"

// Device é uma câmera (ou leitor) enumerável.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// EventKind identifica o tipo de evento emitido por um Stream.
type EventKind int

const (
	// EventDecode carrega o conteúdo de um código lido.
	EventDecode EventKind = iota
	// EventPermission informa se o acesso à câmera foi concedido.
	EventPermission
	// EventTorchCompatible informa se o dispositivo tem lanterna.
	EventTorchCompatible
)

// Event é uma notificação do dispositivo aberto.
type Event struct {
	Kind    EventKind
	Payload string // EventDecode
	Flag    bool   // EventPermission, EventTorchCompatible
}

// Capability é o acesso externo a câmeras e decodificação de códigos.
type Capability interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, device Device) (Stream, error)
}

// Stream é uma aquisição com escopo de um dispositivo.
// Events é fechado quando o stream termina (fim natural, erro ou Stop).
// Stop pode ser chamado várias vezes e precisa ser chamado em todo caminho de saída.
type Stream interface {
	Events() <-chan Event
	SetTorch(on bool) error
	Stop() error
	// Err devolve o erro que encerrou o stream, ou nil se terminou normalmente ou por Stop.
	Err() error
}
