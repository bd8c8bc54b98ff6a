package printer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
)

// Dimensões da página de etiqueta, em mm.
const (
	pageWidth  = 62.0
	pageHeight = 80.0
	qrSide     = 50.0
)

// Artifact é tudo o que vai impresso numa etiqueta.
type Artifact struct {
	Code     string
	Name     string
	Quantity string
	Location string
	PNG      []byte // imagem escaneável do código
}

// Printer gera etiquetas em PDF a partir da imagem do código.
type Printer struct {
	OutputDir string
	Size      int // lado do QR em pixels antes de embutir no PDF
	logger    logger.Logger
}

// NewPrinter cria e retorna uma nova instância do Printer.
func NewPrinter(outputDir string, size int, logger logger.Logger) *Printer {
	return &Printer{OutputDir: outputDir, Size: size, logger: logger}
}

// Render monta o PDF de uma etiqueta: QR centralizado, código abaixo, nome e detalhes no rodapé.
func (p *Printer) Render(a Artifact) ([]byte, error) {
	qr, err := p.normalize(a.PNG)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("qr", imgOptions, bytes.NewReader(qr))
	pdf.ImageOptions("qr", (pageWidth-qrSide)/2, 4, qrSide, qrSide, false, imgOptions, 0, "")

	pdf.SetFont("Courier", "B", 12)
	pdf.SetXY(0, qrSide+5)
	pdf.CellFormat(pageWidth, 6, a.Code, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetX(2)
	pdf.MultiCell(pageWidth-4, 5, tr(a.Name), "", "C", false)

	var details []string
	if a.Quantity != "" {
		details = append(details, a.Quantity)
	}
	if a.Location != "" {
		details = append(details, a.Location)
	}
	if len(details) > 0 {
		pdf.SetFont("Arial", "", 8)
		pdf.SetX(2)
		pdf.MultiCell(pageWidth-4, 4, tr(strings.Join(details, " · ")), "", "C", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperror.NewInternalError("Falha ao gerar PDF da etiqueta.", err)
	}
	return buf.Bytes(), nil
}

// Print grava o PDF em OutputDir/{code}.pdf e devolve o caminho.
func (p *Printer) Print(a Artifact) (string, error) {
	data, err := p.Render(a)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return "", apperror.NewInternalError("Falha ao criar diretório de etiquetas.", err)
	}
	path := filepath.Join(p.OutputDir, fileName(a.Code))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperror.NewInternalError("Falha ao gravar etiqueta.", err)
	}

	p.logger.Info("Etiqueta gerada.", map[string]interface{}{"code": a.Code, "path": path})
	return path, nil
}

// normalize decodifica a imagem e a reescala para Size x Size.
// NearestNeighbor mantém as bordas dos módulos do QR nítidas.
func (p *Printer) normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("imagem da etiqueta inválida: %v", err))
	}
	if p.Size <= 0 || (src.Bounds().Dx() == p.Size && src.Bounds().Dy() == p.Size) {
		return data, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.Size, p.Size))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, apperror.NewInternalError("Falha ao codificar imagem da etiqueta.", err)
	}
	return buf.Bytes(), nil
}

// fileName evita separadores de caminho vindos do código.
func fileName(code string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, code)
	return safe + ".pdf"
}
