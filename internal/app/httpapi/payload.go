package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 20

// payload is a decoded request body. JSON and url-encoded forms are both
// accepted; fields are read back as their textual form.
type payload struct {
	doc  gjson.Result
	form url.Values
}

func readPayload(r *http.Request) (payload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return payload{}, fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return payload{}, fmt.Errorf("parse form: %w", err)
		}
		return payload{form: values}, nil
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return payload{}, nil
	}
	if !gjson.ValidBytes(body) {
		return payload{}, fmt.Errorf("body is not valid JSON")
	}
	return payload{doc: gjson.ParseBytes(body)}, nil
}

// field returns name as text. Numbers keep their literal form so "30.5" and
// 30.5 decode the same way; missing and null fields are empty.
func (p payload) field(name string) string {
	if p.form != nil {
		return p.form.Get(name)
	}
	if !p.doc.IsObject() {
		return ""
	}
	res := p.doc.Get(name)
	switch res.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return res.Str
	default:
		return res.Raw
	}
}
