package printer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/printer"
)

func qrPNG(t *testing.T, code string) []byte {
	t.Helper()
	data, err := qrcode.Encode(code, qrcode.Medium, 128)
	require.NoError(t, err)
	return data
}

func TestRender_ProducesPDF(t *testing.T) {
	p := printer.NewPrinter(t.TempDir(), 350, logger.NewNopLogger())

	data, err := p.Render(printer.Artifact{
		Code:     "a1b2c3d4",
		Name:     "Gemüse Brühe",
		Quantity: "2 Gläser",
		Location: "Keller",
		PNG:      qrPNG(t, "a1b2c3d4"),
	})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestPrint_WritesFileNamedByCode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "labels")
	p := printer.NewPrinter(dir, 0, logger.NewNopLogger())

	path, err := p.Print(printer.Artifact{Code: "a1b2c3d4", Name: "Widget", PNG: qrPNG(t, "a1b2c3d4")})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a1b2c3d4.pdf"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestRender_RejectsNonImage(t *testing.T) {
	p := printer.NewPrinter(t.TempDir(), 350, logger.NewNopLogger())

	_, err := p.Render(printer.Artifact{Code: "x", Name: "x", PNG: []byte("not an image")})

	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
