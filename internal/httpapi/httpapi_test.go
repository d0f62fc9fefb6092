package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enersol/solar-pricing/internal/crmsync"
)

type fakeProcessor struct {
	ran chan struct {
		locationID string
		payload    crmsync.ProposalPayload
	}
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{ran: make(chan struct {
		locationID string
		payload    crmsync.ProposalPayload
	}, 1)}
}

func (f *fakeProcessor) Run(_ context.Context, locationID string, payload crmsync.ProposalPayload) {
	f.ran <- struct {
		locationID string
		payload    crmsync.ProposalPayload
	}{locationID, payload}
}

func testServer(t *testing.T) (*httptest.Server, *fakeProcessor) {
	t.Helper()
	proc := newFakeProcessor()
	srv := httptest.NewServer(New("https://hooks.example.com/in", proc).Router())
	t.Cleanup(srv.Close)
	return srv, proc
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func postJSON(t *testing.T, url, body string, out any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestHome(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["mensagem"], "API de Precificação Solar")
}

func TestConfig(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/config", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://hooks.example.com/in", body["webhook_url"])
}

func TestCalculate_DocumentedExample(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	payload := `{"consumo_medio_mensal": 400, "potencia_modulos_w": 585, "potencia_sistema_kw": 4.68}`
	var body map[string]float64
	resp := postJSON(t, srv.URL+"/calculate", payload, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 19955.63, body["valor_proposta"])
}

func TestCalculate_MissingField(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	var body map[string]string
	resp := postJSON(t, srv.URL+"/calculate", `{"consumo_medio_mensal": 400}`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["detail"], "potencia_modulos_w")
}

func TestCalculate_ZeroModuleWattage(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	payload := `{"consumo_medio_mensal": 400, "potencia_modulos_w": 0, "potencia_sistema_kw": 4.68}`
	var body map[string]string
	resp := postJSON(t, srv.URL+"/calculate", payload, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["detail"], "non-zero")
}

func TestCalculate_InvalidJSON(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	var body map[string]string
	resp := postJSON(t, srv.URL+"/calculate", `{not json`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid JSON body", body["detail"])
}

func TestWebhook_AcceptedAndDispatched(t *testing.T) {
	t.Parallel()
	srv, proc := testServer(t)

	payload := `{"cliente": {"nome": "Maria"}, "valor_proposta": 19955.63}`
	var body map[string]string
	resp := postJSON(t, srv.URL+"/webhook/new-proposal/loc-1", payload, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", body["status"])

	select {
	case got := <-proc.ran:
		assert.Equal(t, "loc-1", got.locationID)
		assert.Equal(t, "Maria", got.payload.Cliente.Nome)
		require.NotNil(t, got.payload.ValorProposta)
		assert.Equal(t, 19955.63, *got.payload.ValorProposta)
	case <-time.After(2 * time.Second):
		t.Fatal("processor was never invoked")
	}
}

func TestWebhook_NonObjectBodyStillAccepted(t *testing.T) {
	t.Parallel()
	srv, proc := testServer(t)

	// Any valid JSON is accepted; only unparseable bodies are rejected.
	var body map[string]string
	resp := postJSON(t, srv.URL+"/webhook/new-proposal/loc-1", `[1, 2]`, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", body["status"])

	select {
	case got := <-proc.ran:
		assert.Equal(t, "loc-1", got.locationID)
		assert.Empty(t, got.payload.Cliente.Nome)
	case <-time.After(2 * time.Second):
		t.Fatal("processor was never invoked")
	}
}

func TestWebhook_InvalidJSON(t *testing.T) {
	t.Parallel()
	srv, proc := testServer(t)

	var body map[string]string
	resp := postJSON(t, srv.URL+"/webhook/new-proposal/loc-1", `not json`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid JSON body", body["detail"])

	select {
	case <-proc.ran:
		t.Fatal("processor must not run for an invalid body")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/calculate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://frontend.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
