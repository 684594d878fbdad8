// Package httpexec builds and sends the HTTP request for a `request` step,
// normalizes the response, and captures per-phase timing.
package httpexec

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

// RenderedRequest is a request step's fields after template substitution;
// every value is a concrete Go value, not a `{{...}}` token.
type RenderedRequest struct {
	Method         string
	URL            string
	Headers        map[string]string
	Params         map[string]string
	BodyKind       scenario.BodyKind
	Body           any
	Cookies        map[string]string
	TimeoutSeconds int
	AllowRedirects bool
	VerifySSL      bool
}

// RequestDetail is the request-as-sent, recorded verbatim in the result
// document for debugging.
type RequestDetail struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// ResponseDetail is the normalized response, recorded in the result
// document and fed to the extractor/validator.
type ResponseDetail struct {
	StatusCode   int                 `json:"statusCode"`
	Headers      map[string][]string `json:"headers,omitempty"`
	Cookies      map[string]string   `json:"cookies,omitempty"`
	Body         any                 `json:"body,omitempty"`
	BodySize     int                 `json:"bodySize"`
	ResponseTime int64               `json:"responseTimeMs"`
	Timing       TimingInfo          `json:"timing"`
}

// ObjectStore resolves a content-addressed reference into file bytes for
// multipart attachments; the executor downloads through this interface
// and writes the bytes to a temporary file it removes on exit.
type ObjectStore interface {
	Fetch(ctx context.Context, ref string) (name string, data []byte, err error)
}

// Executor sends rendered requests and normalizes their responses.
type Executor struct {
	Client      *http.Client
	ObjectStore ObjectStore
}

// New builds an Executor with a fresh http.Client; redirect/TLS behavior
// is applied per-request since each step may set its own flags.
func New(store ObjectStore) *Executor {
	return &Executor{Client: &http.Client{}, ObjectStore: store}
}

// Execute sends req against env's base URL (when req.URL is relative),
// and returns the recorded request/response detail. A non-nil *errs.StepError
// means the step status is `error`; extractors/validators must be skipped.
func (e *Executor) Execute(ctx context.Context, req RenderedRequest, env *scenario.Environment) (RequestDetail, ResponseDetail, *errs.StepError) {
	fullURL, buildErr := resolveURL(req.URL, env)
	if buildErr != nil {
		return RequestDetail{}, ResponseDetail{}, &errs.StepError{
			Kind:    errs.RequestConnectionError,
			Message: buildErr.Error(),
		}
	}

	var tempFiles []string
	defer func() {
		for _, f := range tempFiles {
			_ = os.Remove(f)
		}
	}()

	bodyReader, contentType, buildBodyErr := e.buildBody(ctx, req, &tempFiles)
	if buildBodyErr != nil {
		return RequestDetail{}, ResponseDetail{}, &errs.StepError{
			Kind:    errs.RequestConnectionError,
			Message: buildBodyErr.Error(),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return RequestDetail{}, ResponseDetail{}, &errs.StepError{
			Kind:    errs.RequestConnectionError,
			Message: err.Error(),
		}
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for name, value := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if len(req.Params) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	detail := RequestDetail{Method: req.Method, URL: httpReq.URL.String(), Headers: req.Headers, Body: req.Body}

	client := e.clientFor(req)
	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq = httpReq.WithContext(reqCtx)

	timing, httpResp, sendErr := doWithTiming(client, httpReq)
	if sendErr != nil {
		return detail, ResponseDetail{}, classifySendError(sendErr)
	}
	defer httpResp.Body.Close()

	bodyBytes, _ := io.ReadAll(httpResp.Body)
	resp := ResponseDetail{
		StatusCode:   httpResp.StatusCode,
		Headers:      map[string][]string(httpResp.Header),
		Cookies:      cookiesOf(httpResp),
		Body:         decodeBody(httpResp.Header.Get("Content-Type"), bodyBytes),
		BodySize:     len(bodyBytes),
		ResponseTime: timing.TotalTime.Milliseconds(),
		Timing:       timing,
	}
	return detail, resp, nil
}

// resolveURL implements §4.8's "lacks a scheme → prefix baseUrl with
// exactly one / separator" rule and the baseUrl-required invariant.
func resolveURL(raw string, env *scenario.Environment) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return raw, nil
	}
	if env == nil || env.BaseURL == "" {
		return "", fmt.Errorf("relative url %q requires environment.baseUrl", raw)
	}
	base := strings.TrimRight(env.BaseURL, "/")
	path := strings.TrimLeft(raw, "/")
	return base + "/" + path, nil
}

func (e *Executor) clientFor(req RenderedRequest) *http.Client {
	c := &http.Client{Transport: e.Client.Transport}
	if !req.AllowRedirects {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if !req.VerifySSL {
		transport := cloneOrDefaultTransport(c.Transport)
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
		c.Transport = transport
	}
	return c
}

func cloneOrDefaultTransport(t http.RoundTripper) *http.Transport {
	if rt, ok := t.(*http.Transport); ok && rt != nil {
		return rt.Clone()
	}
	return http.DefaultTransport.(*http.Transport).Clone()
}

func (e *Executor) buildBody(ctx context.Context, req RenderedRequest, tempFiles *[]string) (io.Reader, string, error) {
	switch req.BodyKind {
	case scenario.BodyJSON:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	case scenario.BodyForm:
		values := url.Values{}
		if m, ok := req.Body.(map[string]any); ok {
			for k, v := range m {
				values.Set(k, fmt.Sprintf("%v", v))
			}
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil
	case scenario.BodyRaw:
		switch b := req.Body.(type) {
		case string:
			return strings.NewReader(b), "", nil
		case []byte:
			return bytes.NewReader(b), "", nil
		default:
			return strings.NewReader(fmt.Sprintf("%v", b)), "", nil
		}
	case scenario.BodyMultipart:
		return e.buildMultipart(ctx, req.Body, tempFiles)
	default:
		return nil, "", nil
	}
}

// buildMultipart resolves object-store file references into temporary
// files, attaches them, and the caller removes them via tempFiles on exit.
func (e *Executor) buildMultipart(ctx context.Context, body any, tempFiles *[]string) (io.Reader, string, error) {
	fields, ok := body.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("multipart body must be a map")
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		ref, isFileRef := v.(string)
		if isFileRef && strings.HasPrefix(ref, "objectstore://") && e.ObjectStore != nil {
			name, data, err := e.ObjectStore.Fetch(ctx, strings.TrimPrefix(ref, "objectstore://"))
			if err != nil {
				return nil, "", err
			}
			tmp, err := os.CreateTemp("", "sisyphus-upload-*")
			if err != nil {
				return nil, "", err
			}
			if _, err := tmp.Write(data); err != nil {
				tmp.Close()
				return nil, "", err
			}
			tmp.Close()
			*tempFiles = append(*tempFiles, tmp.Name())

			part, err := w.CreateFormFile(k, name)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(data); err != nil {
				return nil, "", err
			}
			continue
		}
		if err := w.WriteField(k, fmt.Sprintf("%v", v)); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func cookiesOf(resp *http.Response) map[string]string {
	out := map[string]string{}
	for _, c := range resp.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

// decodeBody parses the body as JSON when Content-Type suggests it or the
// bytes begin with `{`/`[`; otherwise it is kept as a string (§4.8).
func decodeBody(contentType string, body []byte) any {
	trimmed := bytes.TrimSpace(body)
	looksJSON := strings.Contains(contentType, "json") ||
		(len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['))
	if !looksJSON {
		return string(body)
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return string(body)
	}
	return v
}
