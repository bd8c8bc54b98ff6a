package scanservice

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/camera"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
)

// State é o estado da sessão de leitura.
type State int

const (
	StateIdle State = iota
	StateDeviceDiscovery
	StateScanning
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeviceDiscovery:
		return "device_discovery"
	case StateScanning:
		return "scanning"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// rearCamera reconhece câmeras traseiras pelo rótulo.
var rearCamera = regexp.MustCompile(`(?i)back|rear|environment`)

// ItemRegistry é o que a sessão usa do cliente do registro de itens.
type ItemRegistry interface {
	Lookup(ctx context.Context, code string) (domain.Item, error)
	Checkout(ctx context.Context, code string) error
}

// Snapshot é uma cópia do estado de trabalho da sessão.
type Snapshot struct {
	State          State
	Device         *camera.Device
	HasPermission  bool
	TorchAvailable bool
	TorchOn        bool
	Item           *domain.Item
}

// Session é a máquina de estados da leitura: seleção de câmera, consulta com debounce e baixa.
// O estado só muda pelas operações da própria sessão.
type Session struct {
	registry ItemRegistry
	notifier notify.Notifier
	logger   logger.Logger
	gate     *Gate

	// OnChange, quando definido, recebe o novo estado a cada transição. Chamado fora do lock.
	OnChange func(Snapshot)

	mu             sync.Mutex
	state          State
	device         *camera.Device
	hasPermission  bool
	torchAvailable bool
	torchOn        bool
	item           *domain.Item
	generation     uint64 // incrementado em Reset; consultas de gerações anteriores são descartadas

	lookups sync.WaitGroup
}

// NewSession cria uma sessão em Idle. now nil usa o relógio do sistema.
func NewSession(registry ItemRegistry, notifier notify.Notifier, debounce time.Duration, now func() time.Time, logger logger.Logger) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		registry: registry,
		notifier: notifier,
		logger:   logger,
		gate:     NewGate(debounce, now),
	}
}

// Snapshot devolve uma cópia do estado atual.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          s.state,
		HasPermission:  s.hasPermission,
		TorchAvailable: s.torchAvailable,
		TorchOn:        s.torchOn,
	}
	if s.device != nil {
		d := *s.device
		snap.Device = &d
	}
	if s.item != nil {
		it := *s.item
		snap.Item = &it
	}
	return snap
}

// update aplica fn sob o lock e avisa OnChange se o estado mudou.
func (s *Session) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed && s.OnChange != nil {
		s.OnChange(snap)
	}
}

// BeginDiscovery inicia a enumeração de câmeras (Idle → DeviceDiscovery).
func (s *Session) BeginDiscovery() {
	s.update(func() bool {
		if s.state != StateIdle {
			return false
		}
		s.state = StateDeviceDiscovery
		return true
	})
}

// OnCamerasFound escolhe exatamente um dispositivo: o primeiro com rótulo de câmera traseira,
// senão o primeiro da lista. Uma vez escolhido, só muda depois de Reset.
func (s *Session) OnCamerasFound(devices []camera.Device) (camera.Device, error) {
	var (
		chosen camera.Device
		err    error
	)
	s.update(func() bool {
		if s.device != nil {
			chosen = *s.device
			return false
		}
		if len(devices) == 0 {
			s.state = StateIdle
			err = apperror.NewCapabilityUnavailableError("nenhuma câmera encontrada", nil)
			return true
		}

		chosen = devices[0]
		for _, d := range devices {
			if rearCamera.MatchString(d.Label) {
				chosen = d
				break
			}
		}
		s.device = &chosen
		s.state = StateScanning
		return true
	})

	if err != nil {
		s.notifier.Notify("Nenhuma câmera encontrada.")
		return camera.Device{}, err
	}
	s.logger.Info("Câmera selecionada.", map[string]interface{}{"device": chosen.Label, "id": chosen.ID})
	return chosen, nil
}

// OnPermission registra a resposta de permissão da câmera. Negar encerra a sessão.
func (s *Session) OnPermission(granted bool) error {
	s.update(func() bool {
		s.hasPermission = granted
		if !granted {
			s.state = StateIdle
			s.item = nil
		}
		return true
	})

	if !granted {
		s.notifier.Notify("Acesso à câmera negado.")
		return apperror.NewCapabilityUnavailableError("permissão de câmera negada", nil)
	}
	return nil
}

// OnTorchCompatible registra se o dispositivo atual tem lanterna.
func (s *Session) OnTorchCompatible(compatible bool) {
	s.update(func() bool {
		s.torchAvailable = compatible
		if !compatible {
			s.torchOn = false
		}
		return true
	})
}

// ToggleTorch inverte a lanterna, se houver. Não afeta consulta nem baixa.
func (s *Session) ToggleTorch() (bool, error) {
	var (
		on        bool
		available bool
	)
	s.update(func() bool {
		available = s.torchAvailable
		if !available {
			return false
		}
		s.torchOn = !s.torchOn
		on = s.torchOn
		return true
	})

	if !available {
		return false, apperror.NewCapabilityUnavailableError("lanterna indisponível", nil)
	}
	return on, nil
}

// OnDecode trata um código decodificado. Devolve true se a leitura foi aceita pelo portão
// e gerou uma consulta. A consulta roda em segundo plano; sem cancelamento, a última resposta
// a chegar define o item.
func (s *Session) OnDecode(ctx context.Context, payload string) bool {
	code := strings.TrimSpace(payload)
	if code == "" {
		return false
	}

	s.mu.Lock()
	scanning := s.state == StateScanning || s.state == StateResolved
	gen := s.generation
	s.mu.Unlock()
	if !scanning || !s.gate.Allow() {
		return false
	}

	s.logger.Debug("Leitura aceita.", map[string]interface{}{"code": code})
	s.lookups.Add(1)
	go func() {
		defer s.lookups.Done()
		item, err := s.registry.Lookup(ctx, code)
		s.applyLookup(gen, code, item, err)
	}()
	return true
}

func (s *Session) applyLookup(gen uint64, code string, item domain.Item, err error) {
	s.update(func() bool {
		if gen != s.generation || (s.state != StateScanning && s.state != StateResolved) {
			// Sessão reiniciada enquanto a consulta estava em andamento.
			return false
		}
		if err != nil {
			// Falhas de consulta são silenciosas: o painel do item só fica vazio.
			s.logger.Debug("Consulta sem resultado.", map[string]interface{}{"code": code, "error": err.Error()})
			s.item = nil
			s.state = StateScanning
			return true
		}
		s.item = &item
		s.state = StateResolved
		return true
	})
}

// Wait bloqueia até as consultas em andamento terminarem.
func (s *Session) Wait() {
	s.lookups.Wait()
}

// Checkout baixa o item resolvido. Só é válido em Resolved. Em caso de falha a sessão
// continua em Resolved e o erro é avisado e devolvido.
func (s *Session) Checkout(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateResolved || s.item == nil {
		s.mu.Unlock()
		return apperror.NewValidationError("Nenhum item selecionado para baixa.")
	}
	code := s.item.Code
	s.mu.Unlock()

	if err := s.registry.Checkout(ctx, code); err != nil {
		s.notifier.Notify(checkoutNotice(err))
		return err
	}

	s.update(func() bool {
		if s.item == nil || s.item.Code != code {
			return false
		}
		s.item = nil
		s.state = StateScanning
		return true
	})
	s.notifier.Notify("Item baixado!")
	return nil
}

func checkoutNotice(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return "Item não encontrado."
	case apperror.KindConflict:
		return "Item já foi baixado."
	default:
		return "Falha ao baixar o item."
	}
}

// Dismiss fecha o item exibido (Resolved → Scanning).
func (s *Session) Dismiss() {
	s.update(func() bool {
		if s.state != StateResolved {
			return false
		}
		s.item = nil
		s.state = StateScanning
		return true
	})
}

// Reset volta a Idle e esquece dispositivo, flags, item e portão.
func (s *Session) Reset() {
	s.update(func() bool {
		s.generation++
		s.state = StateIdle
		s.device = nil
		s.hasPermission = false
		s.torchAvailable = false
		s.torchOn = false
		s.item = nil
		return true
	})
	s.gate.Reset()
}
