package auditlog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Astemirdum/fabtrack/internal/auditlog"
	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want auditlog.Rendered
	}{
		{
			name: "missing",
			raw:  "",
			want: auditlog.Rendered{Kind: auditlog.KindEmpty, Text: "No data"},
		},
		{
			name: "null",
			raw:  "null",
			want: auditlog.Rendered{Kind: auditlog.KindEmpty, Text: "No data"},
		},
		{
			name: "array",
			raw:  `[{"action":"approve","id":42},{"action":"return"}]`,
			want: auditlog.Rendered{Kind: auditlog.KindList, Blocks: []string{
				"{\n  \"action\": \"approve\",\n  \"id\": 42\n}",
				"{\n  \"action\": \"return\"\n}",
			}},
		},
		{
			name: "object",
			raw:  `{"logs":[1,2]}`,
			want: auditlog.Rendered{Kind: auditlog.KindObject, Blocks: []string{"{\n  \"logs\": [\n    1,\n    2\n  ]\n}"}},
		},
		{
			name: "string",
			raw:  `"nothing logged yet"`,
			want: auditlog.Rendered{Kind: auditlog.KindScalar, Text: "nothing logged yet"},
		},
		{
			name: "number",
			raw:  `17`,
			want: auditlog.Rendered{Kind: auditlog.KindScalar, Text: "17"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := auditlog.Render(json.RawMessage(tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := auditlog.Render(json.RawMessage(`{"broken"`))
	require.ErrorIs(t, err, errs.ErrUnexpectedPayload)
}

func TestExport(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("GMT+1", 3600))
	require.Equal(t, "logs-2025-03-04T04:06:07Z.json", auditlog.FileName(at))

	b, err := auditlog.Export(json.RawMessage(`[{"a":1}]`))
	require.NoError(t, err)
	require.Equal(t, "[\n  {\n    \"a\": 1\n  }\n]", string(b))

	_, err = auditlog.Export(nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
