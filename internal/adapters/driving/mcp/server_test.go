package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil context service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingContextService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Context: &mockContextService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil context service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingContextService)
	})

	t.Run("context only is valid", func(t *testing.T) {
		ports := &Ports{
			Context: &mockContextService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Context:  &mockContextService{},
			Manifest: &mockManifestService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}
