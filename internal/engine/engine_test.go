package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreatesLayoutEngineOnce(t *testing.T) {
	f := NewFactory(DefaultFactoryConfig())
	defer f.Close()

	first, err := f.Engine(TypeLayout)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, TypeLayout, first.Type())

	second, err := f.Engine(TypeLayout)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFactory_UnknownType(t *testing.T) {
	f := NewFactory(DefaultFactoryConfig())
	defer f.Close()

	e, err := f.Engine(Type("ghostscript"))
	assert.Error(t, err)
	assert.Nil(t, e)
}

func TestFactory_AutoResolvesToPreferred(t *testing.T) {
	f := NewFactory(FactoryConfig{PreferredType: TypeLayout})
	defer f.Close()

	e, err := f.Engine(TypeAuto)
	require.NoError(t, err)
	assert.Equal(t, TypeLayout, e.Type())
}

func TestFactory_ClosedFactoryRejectsCreation(t *testing.T) {
	f := NewFactory(DefaultFactoryConfig())
	require.NoError(t, f.Close())

	_, err := f.Engine(TypeLayout)
	assert.Error(t, err)
}

func TestFactory_ValidateType(t *testing.T) {
	f := NewFactory(DefaultFactoryConfig())
	defer f.Close()

	assert.NoError(t, f.ValidateType(TypePdfium))
	assert.NoError(t, f.ValidateType(TypeLayout))
	assert.NoError(t, f.ValidateType(TypeAuto))
	assert.Error(t, f.ValidateType(Type("mupdf")))
}

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context_canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"render_cancelled", ErrRenderCancelled, true},
		{"wrapped_cancelled", fmt.Errorf("render: %w", ErrRenderCancelled), true},
		{"plain_failure", errors.New("corrupt page"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCancelled(tt.err))
		})
	}
}

func TestError_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := wrap(TypeLayout, "render", cause)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, TypeLayout, engErr.Engine)
	assert.Equal(t, "render", engErr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_CancellationPassesThrough(t *testing.T) {
	err := wrap(TypePdfium, "render", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)

	var engErr *Error
	assert.False(t, errors.As(err, &engErr))
}

func TestLayoutEngine_OpenMissingFile(t *testing.T) {
	e := newLayoutEngine()

	doc, err := e.Open(context.Background(), Source{Path: "/nonexistent/file.pdf"})
	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.False(t, IsCancelled(err))
}

func TestLayoutEngine_OpenRespectsCancelledContext(t *testing.T) {
	e := newLayoutEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Open(ctx, Source{Path: "anything.pdf"})
	assert.True(t, IsCancelled(err))
}
