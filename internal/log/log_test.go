package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactionPasswordField(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "password", "Demo123!")
	require.Equal(t, "[REDACTED]", out["password"])
}

func TestRedactionPasswordHashField(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "password_hash", "$2a$10$abc")
	require.Equal(t, "[REDACTED]", out["password_hash"])
}

func TestRedactionCardNumberField(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "card_number", "4532015112830366")
	require.Equal(t, "[REDACTED]", out["card_number"])
}

func TestRedactionCVVFieldIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "CVV", "123")
	require.Equal(t, "[REDACTED]", out["CVV"])
}

func TestRedactionCardKeyField(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "card_key", "rotate-me")
	require.Equal(t, "[REDACTED]", out["card_key"])
}

func TestRedactionNestedGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil)))
	logger.Info("seed", slog.Group("card", slog.String("card_number", "4532"), slog.String("brand", "Visa")))

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	card, ok := out["card"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "[REDACTED]", card["card_number"])
	require.Equal(t, "Visa", card["brand"])
}

func TestRedactionWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil))).With("password", "Demo123!")
	logger.Info("seed")
	require.NotContains(t, buf.String(), "Demo123!")
}

func TestNonSensitiveFieldsPassThrough(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "email", "demo@securebank.com")
	require.Equal(t, "demo@securebank.com", out["email"])
}

func TestNewWritesTextToFallbackWithoutFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "debug"}, &buf)
	require.NoError(t, err)
	defer func() { require.NoError(t, closer.Close()) }()

	logger.Debug("schema ensured", "table", "users")
	require.Contains(t, buf.String(), "table=users")
}

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "securebank.log")
	var fallback bytes.Buffer
	logger, closer, err := New(Options{Level: "info", File: path}, &fallback)
	require.NoError(t, err)

	logger.Info("seeded", "password", "Demo123!")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"seeded"`)
	require.NotContains(t, string(data), "Demo123!")
	require.Empty(t, fallback.String())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, _, err := New(Options{Level: "chatty"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestLogRotationCreatesNewFileAfterLimit(t *testing.T) {
	logDir := t.TempDir()
	logPath := filepath.Join(logDir, "securebank.log")

	writer, err := NewRotatingWriter(RotationConfig{
		File:      logPath,
		MaxSizeMB: 1,
		MaxFiles:  5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	chunk := bytes.Repeat([]byte("a"), 512*1024)
	for i := 0; i < 5; i++ {
		_, err = writer.Write(chunk)
		require.NoError(t, err)
	}

	files, err := filepath.Glob(filepath.Join(logDir, "securebank*"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(files), 2)
}

func logSingleField(t *testing.T, key, value string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewRedactingHandler(base))
	logger.Info("test", key, value)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}
