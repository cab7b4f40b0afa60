package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

func TestProcessCmd_Use(t *testing.T) {
	assert.Equal(t, "process [model.json]", processCmd.Use)
}

func TestProcessCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"process"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestProcessCmd_FlagDefaults(t *testing.T) {
	target := processCmd.Flags().Lookup("target-tokens")
	require.NotNil(t, target)
	assert.Equal(t, "500", target.DefValue)

	max := processCmd.Flags().Lookup("max-tokens")
	require.NotNil(t, max)
	assert.Equal(t, "800", max.DefValue)

	project := processCmd.Flags().Lookup("project")
	require.NotNil(t, project)
	assert.Equal(t, "p", project.Shorthand)
}

func TestProcessCmd_ServiceNotConfigured(t *testing.T) {
	oldService := chunkingService
	chunkingService = nil
	defer func() {
		chunkingService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"process", "model.json"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chunking service not configured")
}

func TestProcessCmd_DerivesProjectFromFilename(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{})()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"process", "/tmp/models/tower-a.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := chunkingService.(*mockChunkingService)
	assert.Equal(t, "tower-a", mock.lastProjectID)
	assert.Contains(t, buf.String(), "Processed /tmp/models/tower-a.json")
	assert.Contains(t, buf.String(), "Entities: 2")
}

func TestProcessCmd_ProjectFlagOverridesFilename(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{})()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"process", "-p", "hq-campus", "model.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := chunkingService.(*mockChunkingService)
	assert.Equal(t, "hq-campus", mock.lastProjectID)
}

func TestProcessCmd_DropsCachedContext(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{})()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"process", "-p", "tower-a", "model.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := contextService.(*mockContextService)
	assert.Equal(t, []string{"tower-a"}, mock.invalidated)
}

func TestProcessCmd_PassesSizeOptions(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{})()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"process", "--target-tokens", "300", "--max-tokens", "600", "model.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
		processTargetTokens = domain.DefaultTargetTokenSize
		processMaxTokens = domain.DefaultMaxTokenSize
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := chunkingService.(*mockChunkingService)
	assert.Equal(t, 300, mock.lastOpts.TargetTokenSize)
	assert.Equal(t, 600, mock.lastOpts.MaxTokenSize)
}

func TestProcessCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{})()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"process", "--json", "tower-a.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
		processJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"projectId\": \"tower-a\"")
	assert.Contains(t, buf.String(), "\"totalChunks\"")
}

func TestProcessCmd_LoadErrorPropagates(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{err: errBoom})()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"process", "model.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
	}()

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, errBoom)
}

func TestProcessCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer swapModelSource(&mockModelSource{})()
	chunkingService = &mockChunkingService{err: errBoom}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"process", "model.json"})
	defer func() {
		rootCmd.SetArgs(nil)
		processProject = ""
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "processing failed")
}
