// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/hashicorp/capimplicit/oidc"
)

// FormFieldHash is the form field the relay page posts the fragment in.
const FormFieldHash = "hash"

var fragmentTmpl = template.Must(template.New("fragment").Parse(`<!DOCTYPE html>
<html>
<head><title>signing in</title></head>
<body>
<form method="post" action="{{.Action}}">
<input type="hidden" name="` + FormFieldHash + `" value="">
<noscript><p>JavaScript is required to complete the sign in.</p></noscript>
</form>
<script>
var f = document.forms[0];
f.elements["` + FormFieldHash + `"].value = location.hash;
history.replaceState(null, "", location.pathname + location.search);
f.submit();
</script>
</body>
</html>
`))

// Fragment creates a relay served at the redirect URI. A GET answers with
// a page which posts the browser's fragment back to the same path. The POST
// is handed to p and answered with sFn, or eFn when processing failed.
//
// Supported options: WithLogger
func Fragment(ctx context.Context, p FragmentProcessor, sFn SuccessResponseFunc, eFn ErrorResponseFunc, opt ...Option) (http.HandlerFunc, error) {
	const op = "callback.Fragment"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: fragment processor is nil: %w", op, ErrInvalidParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: success response func is nil: %w", op, ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is nil: %w", op, ErrInvalidParameter)
	}
	opts := getCallbackOpts(opt...)
	logger := opts.withLogger

	return func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			if err := fragmentTmpl.Execute(w, struct{ Action string }{req.URL.Path}); err != nil {
				logger.Error("unable to render relay page", "op", op, "error", err)
			}
			return
		case http.MethodPost:
		default:
			w.Header().Set("Allow", "GET, POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		hash := req.PostFormValue(FormFieldHash)
		params, err := oidc.ParseFragment(hash)
		if err != nil {
			eFn(nil, fmt.Errorf("%s: %w", op, err), w, req)
			return
		}
		if params == nil {
			eFn(nil, fmt.Errorf("%s: no fragment was posted: %w", op, oidc.ErrMalformedFragment), w, req)
			return
		}
		if code, ok := params.Get(oidc.ParamError); ok {
			respErr := &oidc.AuthenErrorResponse{Error: code}
			respErr.Description, _ = params.Get(oidc.ParamErrorDescription)
			respErr.Uri, _ = params.Get(oidc.ParamErrorUri)
			logger.Debug("provider returned an error", "op", op, "error", code)
			eFn(respErr, nil, w, req)
			return
		}
		if err := p.ProcessFragment(ctx, hash); err != nil {
			logger.Error("unable to process fragment", "op", op, "error", err)
			eFn(nil, fmt.Errorf("%s: %w", op, err), w, req)
			return
		}
		sFn(w, req)
	}, nil
}
