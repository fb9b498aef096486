package util

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonHash(t *testing.T) {
	a := JsonHash(map[string]int{"x": 1, "z": 2})
	b := JsonHash(map[string]int{"z": 2, "x": 1})
	c := JsonHash(map[string]int{"x": 1, "z": 3})

	assert.Equal(t, a, b, "map key order must not change the hash")
	assert.NotEqual(t, a, c)
}

func TestBucket(t *testing.T) {
	assert.Equal(t, 0, Bucket(0.4, 1))
	assert.Equal(t, -1, Bucket(-0.4, 1))
	assert.Equal(t, 2, Bucket(5.1, 2))
	assert.Equal(t, 0, Bucket(5.1, 0))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
}

func TestMovingAverage(t *testing.T) {
	out := MovingAverage([]float64{1, 2, 3, 4}, 2)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2.5, 3.5}, out, 1e-9)
	assert.Empty(t, MovingAverage(nil, 3))
}

func TestSaveJson(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, SaveJson(p, map[string]int{"episodes": 3}))

	bs, err := os.ReadFile(p)
	require.NoError(t, err)
	out := make(map[string]int)
	require.NoError(t, json.Unmarshal(bs, &out))
	assert.Equal(t, 3, out["episodes"])
}

func TestTerminalPrinter(t *testing.T) {
	buf := new(bytes.Buffer)
	printer := NewTerminalPrinter(buf, time.Hour)
	first := printer.NewOutput()
	second := printer.NewOutput()

	printer.Start(context.Background())
	first.Set("experiment one")
	assert.True(t, second.TrySet("experiment two"))
	printer.Stop()
	printer.Stop()

	out := buf.String()
	assert.True(t, strings.Contains(out, "experiment one"))
	assert.True(t, strings.Contains(out, "experiment two"))
}
