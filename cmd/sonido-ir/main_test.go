package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { logging.SetGlobalLogger(logging.NewDefaultLogger()) })

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeToneWAV(t *testing.T, dir string) string {
	t.Helper()
	const sr = 48000
	data := make([]int, sr)
	for i := range data {
		v := 0.1 * math.Sin(2*math.Pi*440*float64(i)/sr)
		if (i >= 10000 && i < 10010) || (i >= 30000 && i < 30010) {
			v += 0.8
		}
		data[i] = int(v * math.MaxInt16)
	}

	path := filepath.Join(dir, "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sr, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sr},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestIngestValidateInspect(t *testing.T) {
	dir := t.TempDir()
	wavPath := writeToneWAV(t, dir)
	outPath := filepath.Join(dir, "out", "ir.json")
	blobDir := filepath.Join(dir, "blobs")

	stdout, _, err := runCLI(t, "ingest", wavPath, "--out", outPath, "--blobs", blobDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+outPath)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc, err := ir.Unmarshal(raw)
	require.NoError(t, err)
	assert.NoError(t, ir.Validate(doc))

	fields := doc["fields"].(map[string]any)
	ref := fields["mix/stft_1024_h256/stft/logmag"].(map[string]any)["ref"].(map[string]any)
	assert.Equal(t, "fs", ref["store"])
	assert.FileExists(t, ref["key"].(string))

	stdout, _, err = runCLI(t, "validate", outPath, "--resolve-refs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Document valid")

	stdout, _, err = runCLI(t, "inspect", outPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "mix/stft_1024_h256/stft/logmag")
	assert.Contains(t, stdout, "513x184")
	assert.Contains(t, stdout, "non_silence")
	assert.Contains(t, stdout, "onset")
}

func TestIngestToStdout(t *testing.T) {
	wavPath := writeToneWAV(t, t.TempDir())

	stdout, _, err := runCLI(t, "--log-level", "debug", "ingest", wavPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), "stdout holds only the document")
	assert.NoError(t, ir.Validate(doc))
}

func TestValidateReportsViolations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"meta":{"ir_version":"0.2"}}`), 0o644))

	_, _, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "meta.ir_version")
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sonido.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[ingest]\nexpected_sample_rate = 44100\n"), 0o644))

	_, _, err := runCLI(t, "--config", cfgPath, "ingest", writeToneWAV(t, dir))
	assert.ErrorContains(t, err, "sample rate mismatch")

	_, _, err = runCLI(t, "--config", filepath.Join(dir, "missing.toml"), "ingest", "x.wav")
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	_, _, err := runCLI(t, "--log-level", "loud", "validate", "x.json")
	assert.Error(t, err)
}
