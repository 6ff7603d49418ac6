package auditlog

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/pkg/errors"
)

const NoData = "No data"

type Kind int

const (
	KindEmpty Kind = iota
	KindList
	KindObject
	KindScalar
)

// Rendered is a log payload prepared for display. Lists carry one indented
// block per entry, objects a single block, scalars their plain text.
type Rendered struct {
	Kind   Kind
	Blocks []string
	Text   string
}

func Render(raw json.RawMessage) (Rendered, error) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return Rendered{Kind: KindEmpty, Text: NoData}, nil
	}
	switch t[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(t, &entries); err != nil {
			return Rendered{}, errors.Wrap(errs.ErrUnexpectedPayload, err.Error())
		}
		r := Rendered{Kind: KindList, Blocks: make([]string, 0, len(entries))}
		for _, e := range entries {
			b, err := indent(e)
			if err != nil {
				return Rendered{}, err
			}
			r.Blocks = append(r.Blocks, string(b))
		}
		return r, nil
	case '{':
		b, err := indent(t)
		if err != nil {
			return Rendered{}, err
		}
		return Rendered{Kind: KindObject, Blocks: []string{string(b)}}, nil
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return Rendered{}, errors.Wrap(errs.ErrUnexpectedPayload, err.Error())
		}
		return Rendered{Kind: KindScalar, Text: s}, nil
	}
	if !json.Valid(t) {
		return Rendered{}, errs.ErrUnexpectedPayload
	}
	return Rendered{Kind: KindScalar, Text: string(t)}, nil
}

// FileName is the download name for an export taken at t.
func FileName(t time.Time) string {
	return "logs-" + t.UTC().Format(time.RFC3339) + ".json"
}

// Export returns the payload indented with two spaces. There is nothing to
// export when the payload is missing.
func Export(raw json.RawMessage) ([]byte, error) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil, errors.Wrap(errs.ErrNotFound, "no log data")
	}
	return indent(t)
}

func indent(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, errors.Wrap(errs.ErrUnexpectedPayload, err.Error())
	}
	return buf.Bytes(), nil
}
