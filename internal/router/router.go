package router

import (
	"context"
	"fmt"
	"io"
	"sort"

	"lagerscan/internal/cli/item"
	"lagerscan/internal/cli/location"
	"lagerscan/internal/cli/scan"
	apperror "lagerscan/internal/errors"
)

// HandlerFunc é a assinatura comum dos comandos da linha de comando.
type HandlerFunc func(ctx context.Context, args []string) error

type route struct {
	handler HandlerFunc
	summary string
}

// Router despacha o primeiro argumento para o comando registrado.
type Router struct {
	routes map[string]route
	out    io.Writer
}

// NewRouter configura e retorna o roteador de comandos.
// Recebe os Handlers já inicializados.
func NewRouter(itemHandler *item.Handler, locationHandler *location.Handler, scanHandler *scan.Handler, out io.Writer) *Router {
	r := &Router{routes: map[string]route{}, out: out}

	// 1. Registro de itens
	r.Handle("create", "cria um item e grava a etiqueta", itemHandler.CreateCommand)
	r.Handle("lookup", "mostra um item pelo código", itemHandler.LookupCommand)
	r.Handle("checkout", "baixa um item pelo código", itemHandler.CheckoutCommand)
	r.Handle("move", "move um item para outro local", itemHandler.MoveCommand)
	r.Handle("items", "lista, filtra e ordena itens", itemHandler.ItemsCommand)
	r.Handle("label", "grava novamente a etiqueta de um item", itemHandler.LabelCommand)

	// 2. Diretório de locais
	r.Handle("locations", "gerencia os locais de armazenamento", locationHandler.Command)

	// 3. Leitura por câmera
	r.Handle("scan", "lê etiquetas e baixa itens", scanHandler.Command)

	return r
}

// Handle registra um comando.
func (r *Router) Handle(name, summary string, h HandlerFunc) {
	r.routes[name] = route{handler: h, summary: summary}
}

// Dispatch executa o comando indicado por args[0].
func (r *Router) Dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		r.Usage()
		return nil
	}

	rt, ok := r.routes[args[0]]
	if !ok {
		r.Usage()
		return apperror.NewValidationError(fmt.Sprintf("comando desconhecido: %q", args[0]))
	}
	return rt.handler(ctx, args[1:])
}

// Usage imprime a lista de comandos.
func (r *Router) Usage() {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(r.out, "uso: lagerscan COMANDO [argumentos]")
	fmt.Fprintln(r.out)
	for _, name := range names {
		fmt.Fprintf(r.out, "  %-10s %s\n", name, r.routes[name].summary)
	}
}
