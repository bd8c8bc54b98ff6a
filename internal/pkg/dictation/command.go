package dictation

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"sync"

	apperror "lagerscan/internal/errors"
)

// CommandRecognizer executa um programa externo de reconhecimento de voz.
// O programa escreve a transcrição em stdout, uma por linha, ou "error:<tipo>" em caso de falha.
// "{locale}" nos argumentos é substituído pelo locale pedido.
type CommandRecognizer struct {
	Command string
}

func (c *CommandRecognizer) Start(ctx context.Context, locale string) (Recognition, error) {
	args := strings.Fields(c.Command)
	if len(args) == 0 {
		return nil, apperror.NewCapabilityUnavailableError("nenhum comando de ditado configurado", nil)
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{locale}", locale)
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, apperror.NewCapabilityUnavailableError("comando de ditado não encontrado", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, apperror.NewInternalError("Falha ao preparar o ditado.", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, apperror.NewCapabilityUnavailableError("falha ao iniciar o ditado", err)
	}

	r := &commandRecognition{cmd: cmd, cancel: cancel, results: make(chan Result, 4), done: make(chan struct{}), pumped: make(chan struct{})}
	go r.pump(bufio.NewScanner(stdout))
	return r, nil
}

type commandRecognition struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	results chan Result
	done    chan struct{}
	pumped  chan struct{}
	once    sync.Once
}

func (r *commandRecognition) pump(scanner *bufio.Scanner) {
	defer close(r.pumped)
	defer close(r.results)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res := Result{Transcript: line}
		if kind, ok := strings.CutPrefix(line, "error:"); ok {
			res = Result{Err: ErrorKind(strings.TrimSpace(kind))}
		}
		select {
		case r.results <- res:
		case <-r.done:
			return
		}
	}
}

func (r *commandRecognition) Results() <-chan Result { return r.results }

// Stop encerra o processo e aguarda a saída. Wait só roda depois que stdout foi todo lido.
func (r *commandRecognition) Stop() error {
	r.once.Do(func() {
		close(r.done)
		r.cancel()
		<-r.pumped
		_ = r.cmd.Wait()
	})
	return nil
}
