package httpexec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

func TestExecute_SimpleGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ex := New(nil)
	req := RenderedRequest{Method: "GET", URL: "/ping", AllowRedirects: true, VerifySSL: true}
	env := &scenario.Environment{BaseURL: srv.URL}

	_, resp, stepErr := ex.Execute(context.Background(), req, env)
	require.Nil(t, stepErr)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"ok": true}, resp.Body)
	assert.Greater(t, resp.BodySize, 0)
}

func TestExecute_RelativeURLWithoutBaseURLErrors(t *testing.T) {
	ex := New(nil)
	req := RenderedRequest{Method: "GET", URL: "/ping", AllowRedirects: true, VerifySSL: true}

	_, _, stepErr := ex.Execute(context.Background(), req, nil)
	require.NotNil(t, stepErr)
	assert.Equal(t, errs.RequestConnectionError, stepErr.Kind)
}

func TestExecute_JSONBodyRoundtrip(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(200)
	}))
	defer srv.Close()

	ex := New(nil)
	req := RenderedRequest{
		Method: "POST", URL: "/echo", BodyKind: scenario.BodyJSON,
		Body: map[string]any{"user": "ada"}, AllowRedirects: true, VerifySSL: true,
	}
	env := &scenario.Environment{BaseURL: srv.URL}

	_, resp, stepErr := ex.Execute(context.Background(), req, env)
	require.Nil(t, stepErr)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, gotBody, "ada")
}

func TestExecute_StringBodyNotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	ex := New(nil)
	req := RenderedRequest{Method: "GET", URL: "/text", AllowRedirects: true, VerifySSL: true}
	env := &scenario.Environment{BaseURL: srv.URL}

	_, resp, stepErr := ex.Execute(context.Background(), req, env)
	require.Nil(t, stepErr)
	assert.Equal(t, "plain text", resp.Body)
}

func TestExecute_ConnectionRefusedClassified(t *testing.T) {
	ex := New(nil)
	req := RenderedRequest{Method: "GET", URL: "/x", TimeoutSeconds: 1, AllowRedirects: true, VerifySSL: true}
	env := &scenario.Environment{BaseURL: "http://127.0.0.1:1"}

	_, _, stepErr := ex.Execute(context.Background(), req, env)
	require.NotNil(t, stepErr)
	assert.True(t, stepErr.Kind == errs.RequestConnectionError || stepErr.Kind == errs.RequestTimeout)
}
