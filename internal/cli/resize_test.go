package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizePostsCapacity(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotPath = r.URL.Path
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewResizeCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--addr", srv.URL, "5000"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/tablesize", gotPath)
	assert.Equal(t, "5000", gotBody)
	assert.Contains(t, buf.String(), "5000")
}

func TestResizeRejectedByEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "run table: requested size not larger than current", http.StatusBadRequest)
	}))
	defer srv.Close()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewResizeCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--addr", srv.URL, "100"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "resize rejected")
}

func TestResizeInvalidArgument(t *testing.T) {
	for _, arg := range []string{"abc", "-5", "0"} {
		t.Run(arg, func(t *testing.T) {
			rootOpts := &RootOptions{Format: "text"}
			cmd := NewResizeCommand(rootOpts)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{arg})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestResizeRequiresArgument(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewResizeCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
}
