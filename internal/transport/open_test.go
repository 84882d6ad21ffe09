package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/config"
)

func TestOpen_REST(t *testing.T) {
	for _, kind := range []string{"", "rest", "REST"} {
		tr, closer, err := Open(context.Background(), config.GraphConfig{
			Transport: kind,
			URL:       "http://localhost:7474/db/data",
		}, "", zap.NewNop())
		require.NoError(t, err, kind)
		assert.IsType(t, &RESTTransport{}, tr)
		assert.NoError(t, closer(context.Background()))
	}
}

func TestOpen_Errors(t *testing.T) {
	_, _, err := Open(context.Background(), config.GraphConfig{Transport: "grpc"}, "", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown graph transport "grpc"`)

	_, _, err = Open(context.Background(), config.GraphConfig{Transport: "rest"}, "", zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}
