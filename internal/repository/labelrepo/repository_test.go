package labelrepo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagerscan/internal/pkg/apiclient"
	"lagerscan/internal/pkg/apiclient/apitest"
	"lagerscan/internal/pkg/cache"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/repository/labelrepo"
)

func newCache(t *testing.T) cache.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGetLabel_BackendThenCache(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	code := backend.SeedItem("Honig")
	log := logger.NewNopLogger()
	repo := labelrepo.NewLabelRepository(apiclient.New(backend.URL, backend.Client(), 0, log), newCache(t), time.Hour, log)
	ctx := context.Background()

	first, err := repo.GetLabel(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, labelrepo.SourceBackend, first.Source)
	assert.Equal(t, "image/png", http.DetectContentType(first.PNG))

	requests := backend.Requests()
	second, err := repo.GetLabel(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, labelrepo.SourceCache, second.Source)
	assert.Equal(t, first.PNG, second.PNG)
	assert.Equal(t, requests, backend.Requests(), "cache hit não deve chamar o backend")
}

func TestGetLabel_FallsBackToLocalRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"QR Code not found"}`))
	}))
	defer srv.Close()
	log := logger.NewNopLogger()
	repo := labelrepo.NewLabelRepository(apiclient.New(srv.URL, srv.Client(), 0, log), nil, time.Hour, log)

	label, err := repo.GetLabel(context.Background(), "a1b2c3d4")

	require.NoError(t, err)
	assert.Equal(t, labelrepo.SourceLocal, label.Source)
	assert.Equal(t, "image/png", http.DetectContentType(label.PNG))
}

func TestGetLabel_NonPNGBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error</html>"))
	}))
	defer srv.Close()
	log := logger.NewNopLogger()
	repo := labelrepo.NewLabelRepository(apiclient.New(srv.URL, srv.Client(), 0, log), nil, time.Hour, log)

	label, err := repo.GetLabel(context.Background(), "a1b2c3d4")

	require.NoError(t, err)
	assert.Equal(t, labelrepo.SourceLocal, label.Source)
}

func TestGetLabel_CorruptCacheEntryIsReplaced(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	code := backend.SeedItem("Essig")
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("label:"+code, "kein png"))
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	log := logger.NewNopLogger()
	repo := labelrepo.NewLabelRepository(apiclient.New(backend.URL, backend.Client(), 0, log), client, time.Hour, log)

	label, err := repo.GetLabel(context.Background(), code)

	require.NoError(t, err)
	assert.Equal(t, labelrepo.SourceBackend, label.Source)
	stored, err := mr.Get("label:" + code)
	require.NoError(t, err)
	assert.Equal(t, string(label.PNG), stored)
}
