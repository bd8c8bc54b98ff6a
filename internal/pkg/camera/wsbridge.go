package camera

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
)

const (
	// Tempo máximo para escrever uma mensagem na ponte.
	writeWait = 5 * time.Second

	// Tamanho máximo de mensagem aceito da ponte.
	maxMessageSize = 64 * 1024
)

// Tipos de mensagem do protocolo da ponte de câmera.
const (
	msgEnumerate       = "enumerate"
	msgDevices         = "devices"
	msgSelect          = "select"
	msgPermission      = "permission"
	msgTorchCompatible = "torch_compatible"
	msgTorch           = "torch"
	msgDecode          = "decode"
	msgError           = "error"
	msgStop            = "stop"
)

// bridgeMessage é o envelope JSON trocado com a ponte.
type bridgeMessage struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"sessionId,omitempty"`
	DeviceID   string   `json:"deviceId,omitempty"`
	Devices    []Device `json:"devices,omitempty"`
	Payload    string   `json:"payload,omitempty"`
	Granted    *bool    `json:"granted,omitempty"`
	On         *bool    `json:"on,omitempty"`
	Compatible *bool    `json:"compatible,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// WSBridge fala com uma ponte de câmera via websocket. A ponte enumera as câmeras,
// decodifica os códigos e controla a lanterna; aqui só trafegam os eventos.
type WSBridge struct {
	URL    string
	Dialer *websocket.Dialer
	logger logger.Logger
}

// NewWSBridge cria a capacidade de câmera sobre a ponte em url (ws:// ou wss://).
func NewWSBridge(url string, logger logger.Logger) *WSBridge {
	return &WSBridge{URL: url, Dialer: websocket.DefaultDialer, logger: logger}
}

func (b *WSBridge) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := b.Dialer.DialContext(ctx, b.URL, nil)
	if err != nil {
		return nil, apperror.NewCapabilityUnavailableError("ponte de câmera inacessível", err)
	}
	conn.SetReadLimit(maxMessageSize)
	return conn, nil
}

// Devices abre uma conexão curta, pede a enumeração e devolve a lista recebida.
func (b *WSBridge) Devices(ctx context.Context) ([]Device, error) {
	conn, err := b.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(bridgeMessage{Type: msgEnumerate}); err != nil {
		return nil, apperror.NewCapabilityUnavailableError("falha ao enumerar câmeras", err)
	}

	for {
		var msg bridgeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, apperror.NewCapabilityUnavailableError("falha ao enumerar câmeras", err)
		}
		switch msg.Type {
		case msgDevices:
			b.logger.Debug("Câmeras enumeradas.", map[string]interface{}{"total": len(msg.Devices)})
			return msg.Devices, nil
		case msgPermission:
			if msg.Granted != nil && !*msg.Granted {
				return nil, apperror.NewCapabilityUnavailableError("permissão de câmera negada", nil)
			}
		case msgError:
			return nil, apperror.NewCapabilityUnavailableError(msg.Message, nil)
		}
	}
}

// Open seleciona o dispositivo e começa a receber eventos dele.
func (b *WSBridge) Open(ctx context.Context, device Device) (Stream, error) {
	conn, err := b.dial(ctx)
	if err != nil {
		return nil, err
	}

	s := &bridgeStream{
		conn:      conn,
		sessionID: uuid.New().String(),
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
		logger:    b.logger,
	}
	if err := s.write(bridgeMessage{Type: msgSelect, SessionID: s.sessionID, DeviceID: device.ID}); err != nil {
		conn.Close()
		return nil, apperror.NewCapabilityUnavailableError("falha ao abrir a câmera "+device.Label, err)
	}

	b.logger.Info("Câmera aberta.", map[string]interface{}{"device": device.Label, "session_id": s.sessionID})
	go s.readPump()
	return s, nil
}

type bridgeStream struct {
	conn      *websocket.Conn
	sessionID string
	events    chan Event
	done      chan struct{}
	logger    logger.Logger

	writeMu  sync.Mutex
	stopOnce sync.Once
	mu       sync.Mutex
	err      error
}

// readPump converte mensagens da ponte em eventos até a conexão fechar.
func (s *bridgeStream) readPump() {
	defer close(s.events)
	defer s.conn.Close()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.fail(apperror.NewCapabilityUnavailableError("conexão com a câmera perdida", err))
				}
			}
			return
		}

		var msg bridgeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("Mensagem inválida da ponte de câmera.", map[string]interface{}{"error": err.Error()})
			continue
		}

		var ev Event
		switch msg.Type {
		case msgDecode:
			ev = Event{Kind: EventDecode, Payload: msg.Payload}
		case msgPermission:
			ev = Event{Kind: EventPermission, Flag: msg.Granted != nil && *msg.Granted}
		case msgTorchCompatible:
			ev = Event{Kind: EventTorchCompatible, Flag: msg.Compatible != nil && *msg.Compatible}
		case msgError:
			s.fail(apperror.NewCapabilityUnavailableError(msg.Message, nil))
			return
		default:
			continue
		}

		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *bridgeStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *bridgeStream) write(msg bridgeMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *bridgeStream) Events() <-chan Event { return s.events }

func (s *bridgeStream) SetTorch(on bool) error {
	if err := s.write(bridgeMessage{Type: msgTorch, SessionID: s.sessionID, On: &on}); err != nil {
		return apperror.NewCapabilityUnavailableError("falha ao alternar a lanterna", err)
	}
	return nil
}

// Stop avisa a ponte, fecha a conexão e libera a câmera. Chamadas repetidas não fazem nada.
func (s *bridgeStream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		_ = s.write(bridgeMessage{Type: msgStop, SessionID: s.sessionID})
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))

		s.conn.Close()
		s.logger.Info("Câmera liberada.", map[string]interface{}{"session_id": s.sessionID})
	})
	return nil
}

func (s *bridgeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
