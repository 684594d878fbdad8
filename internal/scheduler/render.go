package scheduler

import (
	"github.com/wesleyorama2/sisyphus/internal/httpexec"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/tmpl"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// renderStringMap template-expands every value of a map[string]string
// field (headers, params, cookies); Renderer.Render does not special-case
// this shape since it only walks map[string]any.
func renderStringMap(m map[string]string, r *tmpl.Renderer, store *vars.Store) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		rv, err := r.RenderString(v, store)
		if err != nil {
			return nil, err
		}
		out[k] = rv
	}
	return out, nil
}

// renderRequest expands every templated field of a RequestSpec into a
// concrete httpexec.RenderedRequest.
func renderRequest(spec *scenario.RequestSpec, r *tmpl.Renderer, store *vars.Store) (httpexec.RenderedRequest, error) {
	url, err := r.RenderString(spec.URL, store)
	if err != nil {
		return httpexec.RenderedRequest{}, err
	}
	headers, err := renderStringMap(spec.Headers, r, store)
	if err != nil {
		return httpexec.RenderedRequest{}, err
	}
	params, err := renderStringMap(spec.Params, r, store)
	if err != nil {
		return httpexec.RenderedRequest{}, err
	}
	cookies, err := renderStringMap(spec.Cookies, r, store)
	if err != nil {
		return httpexec.RenderedRequest{}, err
	}
	body, err := r.Render(spec.Body, store)
	if err != nil {
		return httpexec.RenderedRequest{}, err
	}

	timeout := spec.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	allowRedirects := spec.AllowRedirects == nil || *spec.AllowRedirects
	verifySSL := spec.VerifySSL == nil || *spec.VerifySSL

	return httpexec.RenderedRequest{
		Method:         spec.Method,
		URL:            url,
		Headers:        headers,
		Params:         params,
		BodyKind:       spec.BodyKind,
		Body:           body,
		Cookies:        cookies,
		TimeoutSeconds: timeout,
		AllowRedirects: allowRedirects,
		VerifySSL:      verifySSL,
	}, nil
}

// renderExtractRules returns a copy of rules with each Expression
// template-expanded; the other fields (name/sourceKind/scope/default) are
// structural and never carry {{...}} tokens.
func renderExtractRules(rules []scenario.ExtractRule, r *tmpl.Renderer, store *vars.Store) ([]scenario.ExtractRule, error) {
	out := make([]scenario.ExtractRule, len(rules))
	for i, rule := range rules {
		expr, err := r.RenderString(rule.Expression, store)
		if err != nil {
			return nil, err
		}
		rule.Expression = expr
		out[i] = rule
	}
	return out, nil
}

// renderValidateRules returns a copy of rules with each Expression
// template-expanded; Expected is rendered later by validate.Run itself so
// a templated value can resolve against the step's own fresh response.
func renderValidateRules(rules []scenario.ValidateRule, r *tmpl.Renderer, store *vars.Store) ([]scenario.ValidateRule, error) {
	out := make([]scenario.ValidateRule, len(rules))
	for i, rule := range rules {
		expr, err := r.RenderString(rule.Expression, store)
		if err != nil {
			return nil, err
		}
		rule.Expression = expr
		out[i] = rule
	}
	return out, nil
}
