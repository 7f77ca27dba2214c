// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
)

var silentRefreshTmpl = template.Must(template.New("silent-refresh").Parse(`<!DOCTYPE html>
<html>
<head><title>silent refresh</title></head>
<body>
<script>
parent.postMessage(location.hash, {{.ParentOrigin}});
</script>
</body>
</html>
`))

// SilentRefresh creates the page served at the silent redirect URI. It is
// loaded in the hidden refresh frame and posts the frame's fragment to the
// parent window, which must be at the parent origin.
//
// Supported options: WithParentOrigin (required), WithLogger
func SilentRefresh(opt ...Option) (http.HandlerFunc, error) {
	const op = "callback.SilentRefresh"
	opts := getCallbackOpts(opt...)
	if opts.withParentOrigin == "" {
		return nil, fmt.Errorf("%s: parent origin is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(opts.withParentOrigin)
	if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return nil, fmt.Errorf("%s: parent origin %q is not an origin: %w", op, opts.withParentOrigin, ErrInvalidParameter)
	}
	origin := u.Scheme + "://" + u.Host

	var buf bytes.Buffer
	if err := silentRefreshTmpl.Execute(&buf, struct{ ParentOrigin string }{origin}); err != nil {
		return nil, fmt.Errorf("%s: unable to render page: %w", op, err)
	}
	page := buf.Bytes()

	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		opts.withLogger.Trace("serving silent refresh page", "op", op)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	}, nil
}
