package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"lagerscan/internal/cli/item"
	"lagerscan/internal/pkg/camera"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
	"lagerscan/internal/service/scanservice"
)

// CameraFactory escolhe a câmera do modo de leitura. Quando keyboard é true, a câmera
// devolvida lê os códigos digitados, entregues pelo Handler através de typed.
type CameraFactory func(typed io.Reader) (cam camera.Capability, keyboard bool)

// Handler conduz uma sessão de leitura interativa no terminal.
type Handler struct {
	NewSession func() *scanservice.Session
	Camera     CameraFactory
	Notifier   notify.Notifier
	Logger     logger.Logger
	In         io.Reader
	Out        io.Writer

	outMu sync.Mutex
	last  scanservice.Snapshot
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(newSession func() *scanservice.Session, cam CameraFactory, notifier notify.Notifier, in io.Reader, out io.Writer, log logger.Logger) *Handler {
	return &Handler{
		NewSession: newSession,
		Camera:     cam,
		Notifier:   notifier,
		Logger:     log,
		In:         in,
		Out:        out,
	}
}

const help = "Comandos: /checkout baixa o item, /dismiss volta à leitura, /torch alterna a lanterna, /quit encerra."

// parseCommand traduz uma linha de entrada; ok=false quando a linha é um código.
func parseCommand(line string) (scanservice.Command, bool) {
	switch strings.ToLower(line) {
	case "/checkout", "/c":
		return scanservice.Command{Kind: scanservice.CmdCheckout}, true
	case "/dismiss", "/d":
		return scanservice.Command{Kind: scanservice.CmdDismiss}, true
	case "/torch", "/t":
		return scanservice.Command{Kind: scanservice.CmdTorch}, true
	case "/quit", "/q":
		return scanservice.Command{Kind: scanservice.CmdQuit}, true
	}
	return scanservice.Command{}, false
}

// Command lida com "scan". Retorna quando o operador encerra, a entrada acaba ou ctx é cancelado.
func (h *Handler) Command(ctx context.Context, args []string) error {
	typedR, typedW := io.Pipe()
	cam, keyboard := h.Camera(typedR)

	session := h.NewSession()
	h.last = scanservice.Snapshot{}
	session.OnChange = h.render

	commands := make(chan scanservice.Command)
	done := make(chan struct{})
	defer close(done)

	send := func(cmd scanservice.Command) bool {
		select {
		case commands <- cmd:
			return true
		case <-done:
			return false
		}
	}

	go func() {
		scanner := bufio.NewScanner(h.In)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if cmd, ok := parseCommand(line); ok {
				if !send(cmd) {
					return
				}
				continue
			}
			if keyboard {
				if _, err := io.WriteString(typedW, line+"\n"); err != nil {
					return
				}
				continue
			}
			if !send(scanservice.Command{Kind: scanservice.CmdCode, Code: line}) {
				return
			}
		}
		// Fim da entrada: no modo teclado encerra o leitor, nos demais encerra a sessão.
		if keyboard {
			typedW.Close()
			return
		}
		send(scanservice.Command{Kind: scanservice.CmdQuit})
	}()

	h.println(help)
	runner := scanservice.NewRunner(session, cam, h.Notifier, h.Logger)
	err := runner.Run(ctx, commands)
	typedR.Close()
	return err
}

// render imprime as transições relevantes da sessão.
func (h *Handler) render(snap scanservice.Snapshot) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	prev := h.last
	h.last = snap

	switch snap.State {
	case scanservice.StateScanning:
		if snap.Device == nil || !snap.HasPermission {
			return
		}
		if prev.State == snap.State && prev.HasPermission && prev.TorchAvailable == snap.TorchAvailable && prev.TorchOn == snap.TorchOn {
			return
		}
		torch := ""
		if snap.TorchAvailable {
			torch = fmt.Sprintf(" (lanterna %s)", onOff(snap.TorchOn))
		}
		fmt.Fprintf(h.Out, "Lendo com %s%s...\n", snap.Device.Label, torch)
	case scanservice.StateResolved:
		if snap.Item == nil {
			return
		}
		fmt.Fprintln(h.Out, "----")
		item.WriteItem(h.Out, *snap.Item)
		if snap.Item.IsActive {
			fmt.Fprintln(h.Out, "/checkout para baixar, /dismiss para continuar lendo.")
		}
	}
}

func (h *Handler) println(s string) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintln(h.Out, s)
}

func onOff(on bool) string {
	if on {
		return "ligada"
	}
	return "desligada"
}
