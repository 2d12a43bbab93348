package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/auth"
	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/envelope"
	"github.com/semmy-space/dataprotect/internal/keystore"
	"github.com/semmy-space/dataprotect/internal/output"
	"github.com/semmy-space/dataprotect/internal/prefs"
	"github.com/semmy-space/dataprotect/internal/vault"
)

func ptr(s string) *string { return &s }

type harness struct {
	cfg *config.Config
	g   *Globals
	fp  *FormatterProvider
	out *bytes.Buffer
}

func newHarness(t *testing.T, store string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadFrom(filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	cfg.Sensor = "none"

	var out bytes.Buffer
	return &harness{
		cfg: cfg,
		g:   &Globals{Output: "plain", Backend: "memory", Store: store, DataDir: filepath.Join(dir, "data"), NoInput: true, Timeout: time.Minute},
		fp:  &FormatterProvider{Formatter: output.NewWriter("plain", &out, &out)},
		out: &out,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"locked", vault.ErrLocked, output.ExitLocked},
		{"missing secret", fmt.Errorf("%w: %q", vault.ErrNotFound, "a"), output.ExitNotFound},
		{"unknown label", keystore.ErrUnknownLabel, output.ExitNotFound},
		{"tampered", fmt.Errorf("%w: boom", envelope.ErrTagMismatch), output.ExitIntegrity},
		{"malformed", envelope.ErrMalformedEnvelope, output.ExitIntegrity},
		{"version", envelope.ErrUnsupportedVersion, output.ExitIntegrity},
		{"canceled", auth.Outcome{Kind: auth.Canceled, Code: auth.ErrorHWNotPresent}.Err(), output.ExitCanceled},
		{"fallback", auth.ErrFallbackRequested, output.ExitCanceled},
		{"platform error", auth.Outcome{Kind: auth.Errored, Code: auth.ErrorLockout}.Err(), output.ExitAuth},
		{"not authenticated", vault.ErrNotAuthenticated, output.ExitAuth},
		{"busy", auth.ErrAttemptInProgress, output.ExitBusy},
		{"keystore", keystore.ErrKeyGeneration, output.ExitKeystore},
		{"other", errors.New("disk on fire"), output.ExitGeneral},
		{"cli error kept", output.NewCLIError(output.ExitUsage, "bad"), output.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.code, output.ExitCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.NoError(t, Classify(nil))
}

func TestResolvedOutput(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, "json", (&Globals{Output: "json"}).ResolvedOutput(cfg))

	cfg.DefaultOutput = "json"
	assert.Equal(t, "json", (&Globals{Output: "auto"}).ResolvedOutput(cfg))
	assert.Equal(t, "plain", (&Globals{Output: "plain"}).ResolvedOutput(cfg))
}

func TestResolvedDataDir(t *testing.T) {
	assert.Equal(t, "/tmp/x", (&Globals{DataDir: "/tmp/x"}).ResolvedDataDir())
	assert.Equal(t, config.DataDir(), (&Globals{}).ResolvedDataDir())
}

func TestBuildPlatformNone(t *testing.T) {
	p := buildPlatform("none", strings.NewReader(""), &bytes.Buffer{}, zap.NewNop())
	assert.Nil(t, p.Prompt)
	assert.Nil(t, p.Sensor)

	p = buildPlatform("fprintd", strings.NewReader(""), &bytes.Buffer{}, zap.NewNop())
	assert.NotNil(t, p.Sensor)
	assert.NotNil(t, p.Dialog)
}

func TestOpenSession(t *testing.T) {
	h := newHarness(t, "memory")

	s, err := openSession(h.cfg, h.g, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Vault.Locked())
	assert.True(t, s.Keys.Available(config.DefaultKeyLabel))
	assert.Equal(t, "none", s.Coordinator.Strategy())
	assert.Equal(t, auth.FallbackNever, s.Policy)
	assert.Equal(t, "memory", s.Backend)
}

func TestOpenSessionBadFallback(t *testing.T) {
	h := newHarness(t, "memory")
	h.cfg.Fallback = "sometimes"

	_, err := openSession(h.cfg, h.g, nil)
	assert.Error(t, err)
}

func TestSecretCommands(t *testing.T) {
	h := newHarness(t, "file")

	require.NoError(t, (&SecretSetCmd{Name: "b", Value: ptr("two")}).Run(h.cfg, h.fp, h.g, nil))
	require.NoError(t, (&SecretSetCmd{Name: "a", Value: ptr("one")}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "Stored a")

	h.out.Reset()
	require.NoError(t, (&LsCmd{}).Run(h.cfg, h.fp, h.g, nil))
	assert.Equal(t, "NAME\na\nb\n", h.out.String())

	require.NoError(t, (&SecretRmCmd{Name: "a"}).Run(h.cfg, h.fp, h.g, nil))
	h.out.Reset()
	require.NoError(t, (&SecretListCmd{}).Run(h.cfg, h.fp, h.g, nil))
	assert.Equal(t, "NAME\nb\n", h.out.String())

	kv, err := prefs.Open("file", h.g.DataDir)
	require.NoError(t, err)
	raw, err := kv.Get(vault.KeyPrefix + "b")
	require.NoError(t, err)
	assert.NotContains(t, raw, "two")
	assert.Equal(t, []string{"b"}, secretNames(kv))
}

func TestSecretSetExplicitEmptyValue(t *testing.T) {
	h := newHarness(t, "file")

	require.NoError(t, (&SecretSetCmd{Name: "blank", Value: ptr("")}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "Stored blank")

	kv, err := prefs.Open("file", h.g.DataDir)
	require.NoError(t, err)
	raw, err := kv.Get(vault.KeyPrefix + "blank")
	require.NoError(t, err)
	env, err := envelope.DecodeString(raw)
	require.NoError(t, err)
	assert.Len(t, env, envelope.HeaderSize+keystore.TagSize)
}

func TestSecretGetWithoutAuthenticator(t *testing.T) {
	h := newHarness(t, "memory")

	err := (&SecretGetCmd{Name: "a"}).Run(context.Background(), h.cfg, h.fp, h.g, nil)
	assert.ErrorIs(t, err, auth.ErrCanceled)
	assert.Equal(t, output.ExitCanceled, output.ExitCode(Classify(err)))
	assert.Empty(t, h.out.String())
}

func TestAuthCheckReportsOutcome(t *testing.T) {
	h := newHarness(t, "memory")
	var out bytes.Buffer
	h.fp.Formatter = output.NewWriter("json", &out, &out)

	err := (&AuthCheckCmd{}).Run(context.Background(), h.cfg, h.fp, h.g, nil)
	assert.ErrorIs(t, err, auth.ErrCanceled)

	var view outcomeView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "canceled", view.Outcome)
	assert.Equal(t, "hw-not-present", view.Code)
	assert.Equal(t, "none", view.Strategy)
	assert.NotEmpty(t, view.Attempt)
}

func TestSeedRequiresGenerateWithoutTerminal(t *testing.T) {
	h := newHarness(t, "file")

	err := (&SecretSeedCmd{}).Run(h.cfg, h.fp, h.g, nil)
	assert.Equal(t, output.ExitUsage, output.ExitCode(err))

	require.NoError(t, (&SecretSeedCmd{Generate: true}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "Seeded 3 of 3 secrets")

	h.out.Reset()
	require.NoError(t, (&SecretSeedCmd{Names: []string{"pin", "extra"}, Generate: true}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "Seeded 1 of 2 secrets")
}

func TestKeyCommands(t *testing.T) {
	h := newHarness(t, "memory")

	require.NoError(t, (&KeyGenerateCmd{Label: "extra"}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "Generated key extra")

	h.out.Reset()
	require.NoError(t, (&KeyListCmd{}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "keychain\tsecrets")
}

func TestLockAndStatus(t *testing.T) {
	h := newHarness(t, "memory")

	require.NoError(t, (&LockCmd{}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "Secret store locked")

	h.out.Reset()
	require.NoError(t, (&StatusCmd{}).Run(h.cfg, h.fp, h.g, nil))
	assert.Contains(t, h.out.String(), "State\tlocked")
	assert.Contains(t, h.out.String(), "DeviceCredential\tfalse")
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t, "memory")

	require.NoError(t, (&ConfigSetCmd{Key: "store", Value: "sqlite"}).Run(h.cfg, h.fp))
	err := (&ConfigSetCmd{Key: "store", Value: "redis"}).Run(h.cfg, h.fp)
	assert.Equal(t, output.ExitUsage, output.ExitCode(err))
	err = (&ConfigGetCmd{Key: "region"}).Run(h.cfg, h.fp)
	assert.Equal(t, output.ExitNotFound, output.ExitCode(err))

	h.out.Reset()
	require.NoError(t, (&ConfigGetCmd{Key: "store"}).Run(h.cfg, h.fp))
	assert.Equal(t, "sqlite\n", h.out.String())

	h.out.Reset()
	require.NoError(t, (&ConfigListConfigCmd{}).Run(h.cfg, h.fp))
	assert.Contains(t, h.out.String(), "store\tsqlite\tfile|sqlite|memory")

	require.NoError(t, (&ConfigUnsetCmd{Key: "store"}).Run(h.cfg, h.fp))
	assert.Equal(t, "file", h.cfg.StoreKind())
}

func TestSchema(t *testing.T) {
	parser, err := kong.New(&CLI{}, kong.Name("dataprotect"))
	require.NoError(t, err)

	node, err := findNodeByPath(parser.Model.Node, "secret get")
	require.NoError(t, err)
	schema := buildSchemaNode(node)
	assert.Equal(t, "get", schema.Name)
	require.Len(t, schema.Args, 1)
	assert.Equal(t, "secret", schema.Args[0].Completes)

	_, err = findNodeByPath(parser.Model.Node, "mail send")
	assert.Error(t, err)
}

func TestReadPiped(t *testing.T) {
	got, err := readPiped(strings.NewReader("hunter2\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(got))

	got, err = readPiped(strings.NewReader("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(got))
}
