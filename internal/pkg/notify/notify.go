package notify

import (
	"fmt"
	"io"
	"sync"
)

// Notifier é a superfície de avisos curtos e transitórios para o usuário.
type Notifier interface {
	Notify(msg string)
}

// WriterNotifier escreve cada aviso numa linha do writer (stdout na CLI).
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier cria um Notifier sobre w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "» %s\n", msg)
}

// Recorder guarda os avisos em memória. Usado nos testes.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages devolve uma cópia dos avisos recebidos.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last devolve o último aviso ou "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}
