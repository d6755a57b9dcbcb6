package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s3init.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// closedEndpoint returns a URL nothing listens on.
func closedEndpoint(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr
}

func TestExitError(t *testing.T) {
	t.Parallel()
	inner := errors.New("boom")
	err := &ExitError{Code: 2, Err: inner}

	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := &ExitError{Code: 1}
	assert.Equal(t, "exit code 1", bare.Error())
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := loadConfig("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3init.yaml")
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "endpoint: http://minio:9000\nbucket: uploads\n")

	cfg, err := loadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "uploads", cfg.Bucket)
}

func TestUp_UnreachableStoreExitsOne(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, fmt.Sprintf(`
endpoint: %s
bucket: uploads
poll_interval: 20ms
max_wait: 100ms
`, closedEndpoint(t)))

	err := Up(context.Background(), path, true)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestUp_ConfigError(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "bucket: uploads\n")

	err := Up(context.Background(), path, true)

	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "config errors should not carry run exit codes")
}

func TestHealth_Live(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf("endpoint: %s\nbucket: uploads\nliveness_path: /\n", srv.URL))

	assert.NoError(t, Health(context.Background(), path, false))
}

func TestHealth_NotLive(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, fmt.Sprintf(`
endpoint: %s
bucket: uploads
poll_interval: 20ms
max_wait: 100ms
`, closedEndpoint(t)))

	err := Health(context.Background(), path, false)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestHealth_WaitUntilLive(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf("endpoint: %s\nbucket: uploads\nliveness_path: /\n", srv.URL))

	assert.NoError(t, Health(context.Background(), path, true))
}

func TestDoctor_Healthy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf("endpoint: %s\nbucket: uploads\nliveness_path: /\n", srv.URL))

	assert.NoError(t, Doctor(context.Background(), path, true))
}

func TestDoctor_BadPolicy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf(`
endpoint: %s
bucket: uploads
liveness_path: /
policy: '{"Version": "2012-10-17"}'
`, srv.URL))

	err := Doctor(context.Background(), path, true)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestDoctor_UnreachableEndpoint(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, fmt.Sprintf("endpoint: %s\nbucket: uploads\n", closedEndpoint(t)))

	err := Doctor(context.Background(), path, true)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestDiagnosis_Healthy(t *testing.T) {
	t.Parallel()
	d := &Diagnosis{
		Config:   CheckResult{OK: true},
		Policy:   CheckResult{Skipped: true},
		Liveness: CheckResult{OK: true},
	}
	assert.True(t, d.Healthy())

	d.Liveness = CheckResult{OK: false, Message: "refused"}
	assert.False(t, d.Healthy())
}

// fakeStore is a minimal S3-compatible endpoint for down tests.
func fakeStore(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func storeConfig(t *testing.T, endpoint string) string {
	t.Helper()
	return writeConfig(t, fmt.Sprintf(`
endpoint: %s
bucket: uploads
access_key: test
secret_key: test
`, endpoint))
}

func TestDown_RemovesBucketAndPolicy(t *testing.T) {
	t.Parallel()
	var deletes []string
	endpoint := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			deletes = append(deletes, r.URL.Path+"?"+r.URL.RawQuery)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	err := Down(context.Background(), storeConfig(t, endpoint))

	require.NoError(t, err)
	// Policy first, then the bucket itself.
	require.Len(t, deletes, 2)
	assert.Contains(t, deletes[0], "policy")
	assert.Contains(t, deletes[1], "/uploads")
}

func TestDown_AbsentBucketIsNoOp(t *testing.T) {
	t.Parallel()
	endpoint := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			t.Error("nothing should be deleted for an absent bucket")
		}
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, Down(context.Background(), storeConfig(t, endpoint)))
}

func TestDown_NonEmptyBucketExitsTwo(t *testing.T) {
	t.Parallel()
	endpoint := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.RawQuery != "":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>BucketNotEmpty</Code><Message>not empty</Message></Error>`))
		}
	})

	err := Down(context.Background(), storeConfig(t, endpoint))

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
