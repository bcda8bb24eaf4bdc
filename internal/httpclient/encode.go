package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"slices"
)

const (
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	mimeJSON            = "application/json"
	mimeForm            = "application/x-www-form-urlencoded"
	mimeOctetStream     = "application/octet-stream"
)

// newHTTPRequest encodes r. Files make a multipart/form-data body carrying
// the params as fields; otherwise params go in the query string for GET and
// HEAD and in a form body for other methods. A raw body is sent only when
// neither applies.
func newHTTPRequest(ctx context.Context, r *Request) (*http.Request, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", r.URL, err)
	}

	headers := r.Headers()
	var body io.Reader

	switch {
	case len(r.Files) > 0:
		buf, contentType, err := encodeMultipart(r.Params, r.Files)
		if err != nil {
			return nil, err
		}
		body = buf
		headers[headerContentType] = contentType
	case len(r.Params) > 0 && r.Method.hasQueryParams():
		q := u.Query()
		for k, v := range r.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	case len(r.Params) > 0:
		form := make(url.Values, len(r.Params))
		for k, v := range r.Params {
			form.Set(k, v)
		}
		body = bytes.NewBufferString(form.Encode())
		if !hasHeader(headers, headerContentType) {
			headers[headerContentType] = mimeForm
		}
	case len(r.Body) > 0:
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, string(r.Method), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func hasHeader(headers map[string]string, key string) bool {
	for k := range headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(key) {
			return true
		}
	}
	return false
}

func encodeMultipart(params, files map[string]string) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	for _, k := range slices.Sorted(maps.Keys(params)) {
		if err := w.WriteField(k, params[k]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	for _, field := range slices.Sorted(maps.Keys(files)) {
		if err := writeFile(w, field, files[field]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set(headerContentType, guessContentType(name))

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}

func guessContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return mimeOctetStream
}
