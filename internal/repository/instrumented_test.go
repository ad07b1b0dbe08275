package repository

import (
	"context"
	"errors"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct{ MemoryKV }

var errBroken = errors.New("broken")

func (f *failingKV) Set(context.Context, string, string) error { return errBroken }

func TestInstrumentedCountsOperations(t *testing.T) {
	reg := prom.NewRegistry()
	kv, err := NewInstrumented(NewMemoryKV(), reg)
	require.NoError(t, err)
	ctx := testContext(t)

	require.NoError(t, kv.Set(ctx, "k", "v"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	_, _, _ = kv.Get(ctx, "missing")
	require.NoError(t, kv.Remove(ctx, "k"))

	assert.Equal(t, 1.0, testutil.ToFloat64(kv.ops.WithLabelValues("set", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(kv.ops.WithLabelValues("get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(kv.ops.WithLabelValues("remove", "ok")))
	assert.Equal(t, 3, testutil.CollectAndCount(kv.duration))
}

func TestInstrumentedRecordsErrors(t *testing.T) {
	kv, err := NewInstrumented(&failingKV{MemoryKV: MemoryKV{entries: map[string]string{}}}, prom.NewRegistry())
	require.NoError(t, err)

	assert.ErrorIs(t, kv.Set(testContext(t), "k", "v"), errBroken)
	assert.Equal(t, 1.0, testutil.ToFloat64(kv.ops.WithLabelValues("set", "error")))
}

func TestInstrumentedDoubleRegistration(t *testing.T) {
	reg := prom.NewRegistry()
	_, err := NewInstrumented(NewMemoryKV(), reg)
	require.NoError(t, err)
	_, err = NewInstrumented(NewMemoryKV(), reg)
	assert.Error(t, err)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	ctx := testContext(t)

	require.NoError(t, kv.Set(ctx, "a", "1"))
	require.NoError(t, kv.Set(ctx, "a", "2"))
	v, ok, _ := kv.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, kv.Len())

	require.NoError(t, kv.Remove(ctx, "a"))
	assert.Zero(t, kv.Len())
}
