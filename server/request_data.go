package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	requestDataKey   = "request.data"
	maxMultipartMem  = 32 << 20
	mimeMultipartRaw = "multipart/form-data"
)

// RequestData is the request as seen by the validators. Validated parts are
// replaced (params, body, files) or merged into (query, header) with their
// parsed values according to the assignment policy.
type RequestData struct {
	// Query maps a key to a string, or to []string when repeated.
	Query map[string]any
	// Params holds path parameters; a map[string]any until replaced.
	Params any
	// Header maps lower-cased names to comma joined values.
	Header map[string]any
	// Body is the decoded JSON or form payload. HasBody reports presence.
	Body    any
	HasBody bool
	// Files maps a multipart field to a file map (filename, size,
	// contentType), or to []any of them when several files share the field.
	// HasFiles reports presence.
	Files    any
	HasFiles bool

	bodyErr error
}

// GetRequestData returns the request data of c, collecting it on first use.
func GetRequestData(c echo.Context) *RequestData {
	if data, ok := c.Get(requestDataKey).(*RequestData); ok && data != nil {
		return data
	}
	data := collectRequestData(c)
	c.Set(requestDataKey, data)
	return data
}

func collectRequestData(c echo.Context) *RequestData {
	req := c.Request()
	data := &RequestData{
		Query:  valuesToMap(c.QueryParams()),
		Params: paramsToMap(c),
		Header: headerToMap(req),
	}

	if !bodyPresent(req) {
		return data
	}
	data.HasBody = true

	raw, err := readAndRestoreBody(req)
	if err != nil {
		data.bodyErr = err
		return data
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	switch {
	case len(bytes.TrimSpace(raw)) == 0 && mediaType != mimeMultipartRaw:
		data.Body = map[string]any{}
	case mediaType == echo.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json"):
		var body any
		if err := json.Unmarshal(raw, &body); err != nil {
			data.bodyErr = fmt.Errorf("malformed JSON body: %w", err)
			return data
		}
		data.Body = body
	case mediaType == echo.MIMEApplicationForm:
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			data.bodyErr = fmt.Errorf("malformed form body: %w", err)
			return data
		}
		data.Body = valuesToMap(values)
	case mediaType == mimeMultipartRaw:
		collectMultipart(req, raw, data)
	default:
		data.Body = string(raw)
	}
	return data
}

// bodyPresent reports whether the request carries a body part to validate.
func bodyPresent(req *http.Request) bool {
	if req.ContentLength > 0 || len(req.TransferEncoding) > 0 {
		return true
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func readAndRestoreBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return raw, nil
}

func collectMultipart(req *http.Request, raw []byte, data *RequestData) {
	err := req.ParseMultipartForm(maxMultipartMem)
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			data.Body = map[string]any{}
			return
		}
		data.bodyErr = fmt.Errorf("malformed multipart body: %w", err)
		return
	}

	data.Body = valuesToMap(req.MultipartForm.Value)
	files := make(map[string]any, len(req.MultipartForm.File))
	for field, headers := range req.MultipartForm.File {
		uploaded := make([]any, 0, len(headers))
		for _, h := range headers {
			uploaded = append(uploaded, map[string]any{
				"filename":    h.Filename,
				"size":        h.Size,
				"contentType": h.Header.Get(echo.HeaderContentType),
			})
		}
		if len(uploaded) == 1 {
			files[field] = uploaded[0]
		} else {
			files[field] = uploaded
		}
	}
	data.Files = files
	data.HasFiles = true
}

func valuesToMap(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = v[0]
		default:
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

func paramsToMap(c echo.Context) map[string]any {
	names := c.ParamNames()
	values := c.ParamValues()
	out := make(map[string]any, len(names))
	for i, name := range names {
		if i < len(values) {
			out[name] = values[i]
		}
	}
	return out
}

func headerToMap(req *http.Request) map[string]any {
	out := make(map[string]any, len(req.Header)+1)
	for k, v := range req.Header {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	if req.Host != "" {
		out["host"] = req.Host
	}
	return out
}
