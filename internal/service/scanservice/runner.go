package scanservice

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/camera"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
)

// CommandKind é uma ação do operador durante a leitura.
type CommandKind int

const (
	CmdCheckout CommandKind = iota
	CmdDismiss
	CmdTorch
	CmdCode // código digitado; passa pelo mesmo portão das leituras
	CmdQuit
)

// Command é uma ação do operador.
type Command struct {
	Kind CommandKind
	Code string
}

var (
	errQuit        = errors.New("leitura encerrada pelo operador")
	errStreamEnded = errors.New("câmera encerrada")
)

// Runner liga a sessão a uma câmera real e aos comandos do operador.
type Runner struct {
	Session  *Session
	Camera   camera.Capability
	notifier notify.Notifier
	logger   logger.Logger
}

// NewRunner cria um Runner.
func NewRunner(session *Session, cam camera.Capability, notifier notify.Notifier, logger logger.Logger) *Runner {
	return &Runner{Session: session, Camera: cam, notifier: notifier, logger: logger}
}

// Run enumera as câmeras, abre a escolhida e processa eventos e comandos até CmdQuit,
// fim do stream, erro ou cancelamento de ctx. A câmera é liberada em todos esses caminhos.
// Consultas e baixas usam ctx: as que estiverem em andamento terminam antes do retorno.
func (r *Runner) Run(ctx context.Context, commands <-chan Command) error {
	s := r.Session
	s.BeginDiscovery()

	devices, err := r.Camera.Devices(ctx)
	if err != nil {
		s.Reset()
		r.notifier.Notify(apperror.Notice(err, "Câmera indisponível."))
		return err
	}
	device, err := s.OnCamerasFound(devices)
	if err != nil {
		return err
	}

	stream, err := r.Camera.Open(ctx, device)
	if err != nil {
		s.Reset()
		r.notifier.Notify(apperror.Notice(err, "Câmera indisponível."))
		return err
	}
	// Ordem de saída: libera a câmera, espera as consultas e volta a Idle.
	defer s.Reset()
	defer s.Wait()
	defer func() {
		if stopErr := stream.Stop(); stopErr != nil {
			r.logger.Warn("Falha ao liberar a câmera.", map[string]interface{}{"error": stopErr.Error()})
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case ev, ok := <-stream.Events():
				if !ok {
					if err := stream.Err(); err != nil {
						return err
					}
					return errStreamEnded
				}
				if err := r.handleEvent(ctx, ev); err != nil {
					return err
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case cmd, ok := <-commands:
				if !ok || cmd.Kind == CmdQuit {
					return errQuit
				}
				r.handleCommand(ctx, stream, cmd)
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err = g.Wait()
	switch {
	case errors.Is(err, errQuit), errors.Is(err, errStreamEnded):
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return nil
	}
	r.logger.Error("Leitura interrompida.", err)
	return err
}

func (r *Runner) handleEvent(ctx context.Context, ev camera.Event) error {
	switch ev.Kind {
	case camera.EventDecode:
		r.Session.OnDecode(ctx, ev.Payload)
	case camera.EventPermission:
		return r.Session.OnPermission(ev.Flag)
	case camera.EventTorchCompatible:
		r.Session.OnTorchCompatible(ev.Flag)
	}
	return nil
}

func (r *Runner) handleCommand(ctx context.Context, stream camera.Stream, cmd Command) {
	switch cmd.Kind {
	case CmdCheckout:
		if err := r.Session.Checkout(ctx); err != nil && apperror.Is(err, apperror.KindValidation) {
			r.notifier.Notify(apperror.Notice(err, "Nenhum item selecionado."))
		}
	case CmdDismiss:
		r.Session.Dismiss()
	case CmdTorch:
		on, err := r.Session.ToggleTorch()
		if err != nil {
			r.notifier.Notify("Lanterna indisponível.")
			return
		}
		if err := stream.SetTorch(on); err != nil {
			r.logger.Warn("Falha ao alternar a lanterna.", map[string]interface{}{"error": err.Error()})
			r.notifier.Notify("Falha ao alternar a lanterna.")
		}
	case CmdCode:
		if !r.Session.OnDecode(ctx, cmd.Code) {
			r.logger.Debug("Código digitado ignorado.", map[string]interface{}{"code": cmd.Code})
		}
	}
}
