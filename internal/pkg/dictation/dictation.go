package dictation

import (
	"context"
	"strings"
	"sync"
	"time"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
)

// ErrorKind é o tipo de erro informado pelo reconhecedor de voz.
type ErrorKind string

const (
	ErrNoSpeech     ErrorKind = "no-speech"
	ErrAudioCapture ErrorKind = "audio-capture"
	ErrNotAllowed   ErrorKind = "not-allowed"
)

// DefaultGuard é o tempo máximo de escuta sem fim natural.
const DefaultGuard = 3500 * time.Millisecond

// Result é um evento do reconhecedor: uma transcrição final ou um erro.
type Result struct {
	Transcript string
	Err        ErrorKind
}

// Recognizer é a capacidade externa de fala-para-texto.
type Recognizer interface {
	Start(ctx context.Context, locale string) (Recognition, error)
}

// Recognition é uma aquisição com escopo do microfone.
// Results é fechado no fim natural da fala; Stop pode ser chamado várias vezes.
type Recognition interface {
	Results() <-chan Result
	Stop() error
}

// Notice devolve o aviso para o tipo de erro; tipos desconhecidos usam a mensagem genérica.
func Notice(kind ErrorKind) string {
	switch kind {
	case ErrNoSpeech:
		return "Nenhuma fala reconhecida."
	case ErrAudioCapture:
		return "Nenhum microfone encontrado."
	case ErrNotAllowed:
		return "Acesso ao microfone negado."
	default:
		return "Erro no ditado."
	}
}

// listen é uma escuta em andamento.
type listen struct {
	rec  Recognition
	stop chan struct{}
	once sync.Once
}

func (l *listen) end() {
	l.once.Do(func() {
		close(l.stop)
		_ = l.rec.Stop()
	})
}

// Session controla no máximo uma escuta por vez, com timer de guarda.
type Session struct {
	Recognizer Recognizer // nil = ditado não suportado
	Locale     string
	Guard      time.Duration
	notifier   notify.Notifier
	logger     logger.Logger

	mu        sync.Mutex
	current   *listen
	listening bool
}

// NewSession cria uma sessão de ditado.
func NewSession(r Recognizer, locale string, guard time.Duration, notifier notify.Notifier, logger logger.Logger) *Session {
	if guard <= 0 {
		guard = DefaultGuard
	}
	return &Session{Recognizer: r, Locale: locale, Guard: guard, notifier: notifier, logger: logger}
}

// Listen para a escuta anterior (se houver), abre o microfone e aplica a primeira transcrição
// final com apply. Não bloqueia: o canal devolvido fecha quando a escuta termina, seja por fim
// natural, erro, guarda, cancelamento de ctx ou Stop.
func (s *Session) Listen(ctx context.Context, apply func(text string)) (<-chan struct{}, error) {
	s.Stop()

	if s.Recognizer == nil {
		s.notifier.Notify("Ditado não é suportado neste ambiente.")
		return nil, apperror.NewCapabilityUnavailableError("ditado não suportado", nil)
	}

	rec, err := s.Recognizer.Start(ctx, s.Locale)
	if err != nil {
		s.logger.Warn("Falha ao iniciar o ditado.", map[string]interface{}{"error": err.Error()})
		s.notifier.Notify(apperror.Notice(err, Notice("")))
		return nil, err
	}

	l := &listen{rec: rec, stop: make(chan struct{})}
	s.mu.Lock()
	s.current = l
	s.listening = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.finish(l)
		s.run(ctx, l, apply)
	}()
	return done, nil
}

func (s *Session) run(ctx context.Context, l *listen, apply func(string)) {
	guard := time.NewTimer(s.Guard)
	defer guard.Stop()

	for {
		select {
		case res, ok := <-l.rec.Results():
			if !ok {
				return
			}
			if res.Err != "" {
				s.logger.Debug("Erro de ditado.", map[string]interface{}{"kind": string(res.Err)})
				s.notifier.Notify(Notice(res.Err))
				return
			}
			if text := strings.TrimSpace(res.Transcript); text != "" {
				apply(text)
				return
			}
		case <-guard.C:
			s.logger.Debug("Ditado encerrado pelo timer de guarda.", nil)
			return
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		}
	}
}

// finish libera o microfone e limpa o estado se l ainda for a escuta atual.
func (s *Session) finish(l *listen) {
	l.end()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == l {
		s.current = nil
		s.listening = false
	}
}

// Stop encerra a escuta atual. O estado é limpo antes do retorno.
func (s *Session) Stop() {
	s.mu.Lock()
	l := s.current
	s.current = nil
	s.listening = false
	s.mu.Unlock()

	if l != nil {
		l.end()
	}
}

// Listening informa se há uma escuta aberta.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// Active informa se a sessão ainda guarda referência a uma escuta.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
