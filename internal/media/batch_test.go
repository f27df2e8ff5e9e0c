package media

import (
	"bytes"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

func readers(t *testing.T, widths ...int) []io.Reader {
	t.Helper()
	out := make([]io.Reader, len(widths))
	for i, w := range widths {
		out[i] = bytes.NewReader(pngBytes(t, w, 10, color.White))
	}
	return out
}

func TestBatch_CompressAll_order(t *testing.T) {
	b := NewBatch(NewCodec(0, 0), 2)

	results, err := b.CompressAll(t.Context(), readers(t, 10, 20, 30, 40, 50))
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, uri := range results {
		assert.Equal(t, (i+1)*10, decodeURI(t, uri).Bounds().Dx())
	}
}

func TestBatch_CompressAll_failure(t *testing.T) {
	inputs := readers(t, 10, 20)
	inputs = append(inputs, strings.NewReader("broken"))

	results, err := NewBatch(NewCodec(0, 0), 0).CompressAll(t.Context(), inputs)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodec))
	assert.Nil(t, results)
}

func TestGate(t *testing.T) {
	var g Gate
	first := g.Issue()
	assert.True(t, first.Current())

	g.Supersede()
	second := g.Issue()
	assert.False(t, first.Current())
	assert.True(t, second.Current())
	assert.False(t, Ticket{}.Current())
}

func TestBatch_Run(t *testing.T) {
	var g Gate
	b := NewBatch(NewCodec(0, 0), 0)

	calls := 0
	var got []string
	err := b.Run(t.Context(), g.Issue(), readers(t, 10, 20), func(results []string) error {
		calls++
		got = results
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, got, 2)
}

func TestBatch_Run_superseded(t *testing.T) {
	var g Gate
	ticket := g.Issue()
	g.Supersede()

	err := NewBatch(NewCodec(0, 0), 0).Run(t.Context(), ticket, readers(t, 10), func([]string) error {
		t.Fatal("apply called for a superseded batch")
		return nil
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBatchSuperseded))
}
