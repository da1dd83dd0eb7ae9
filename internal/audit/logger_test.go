package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgctx "github.com/baechuer/contacts-api/internal/pkg/context"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestRecord_MasksEmailAndAddsRequestContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	ctx := pkgctx.WithRequestID(context.Background(), "req-1")
	ctx = pkgctx.WithClientIP(ctx, "10.0.0.1")
	l.Record(ctx, "login_success", map[string]string{"user_id": "u1", "email": "alice@example.com"})

	m := decode(t, &buf)
	assert.Equal(t, true, m["audit"])
	assert.Equal(t, "login_success", m["action"])
	assert.Equal(t, "u1", m["user_id"])
	assert.Equal(t, "al***@example.com", m["email"])
	assert.Equal(t, "req-1", m["request_id"])
	assert.Equal(t, "10.0.0.1", m["ip"])
	assert.Equal(t, "info", m["level"])
}

func TestRecord_FailureActionsAreWarn(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	l.Record(context.Background(), "login_failed", map[string]string{"reason": "invalid_credentials"})

	m := decode(t, &buf)
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "invalid_credentials", m["reason"])
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"a@b":             "***",
		"a@example.com":   "a***@example.com",
		"bob@example.com": "bo***@example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, maskEmail(in), in)
	}
}
