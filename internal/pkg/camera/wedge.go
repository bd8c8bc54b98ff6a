package camera

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperror "lagerscan/internal/errors"
)

// Wedge é um leitor de códigos que entrega uma linha por leitura
// (leitores USB em modo teclado, leitores seriais, ou entrada manual).
type Wedge struct {
	device Device
	open   func() (io.Reader, error)
}

// NewDeviceWedge lê linhas de um arquivo de dispositivo (ex: /dev/ttyACM0).
func NewDeviceWedge(path string) *Wedge {
	return &Wedge{
		device: Device{ID: path, Label: filepath.Base(path)},
		open: func() (io.Reader, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// NewReaderWedge lê linhas de r. Stop fecha r quando ele é um io.Closer.
func NewReaderWedge(label string, r io.Reader) *Wedge {
	return &Wedge{
		device: Device{ID: "reader", Label: label},
		open:   func() (io.Reader, error) { return r, nil },
	}
}

func (w *Wedge) Devices(ctx context.Context) ([]Device, error) {
	return []Device{w.device}, nil
}

func (w *Wedge) Open(ctx context.Context, device Device) (Stream, error) {
	r, err := w.open()
	if err != nil {
		if os.IsPermission(err) {
			return nil, apperror.NewCapabilityUnavailableError("sem permissão para acessar o leitor "+w.device.Label, err)
		}
		return nil, apperror.NewCapabilityUnavailableError("leitor "+w.device.Label+" indisponível", err)
	}

	s := &wedgeStream{
		r:      r,
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

type wedgeStream struct {
	r      io.Reader
	events chan Event
	done   chan struct{}

	stopOnce sync.Once
	mu       sync.Mutex
	err      error
}

func (s *wedgeStream) pump() {
	defer close(s.events)

	if !s.emit(Event{Kind: EventPermission, Flag: true}) || !s.emit(Event{Kind: EventTorchCompatible, Flag: false}) {
		return
	}

	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		code := strings.TrimSpace(scanner.Text())
		if code == "" {
			continue
		}
		if !s.emit(Event{Kind: EventDecode, Payload: code}) {
			return
		}
	}

	select {
	case <-s.done:
		// Leitura interrompida por Stop não é erro.
	default:
		if err := scanner.Err(); err != nil {
			s.mu.Lock()
			s.err = apperror.NewCapabilityUnavailableError("falha na leitura do leitor", err)
			s.mu.Unlock()
		}
	}
}

func (s *wedgeStream) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *wedgeStream) Events() <-chan Event { return s.events }

func (s *wedgeStream) SetTorch(on bool) error {
	return apperror.NewCapabilityUnavailableError("leitor sem lanterna", nil)
}

func (s *wedgeStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (s *wedgeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
