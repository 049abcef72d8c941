package http

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerStartStop(t *testing.T) {
	config := DefaultServerConfig()
	config.Port = 0
	server := NewServer(config, Dependencies{})
	assert.Equal(t, ":0", server.Addr())

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	var url string
	require.Eventually(t, func() bool {
		_, port, err := net.SplitHostPort(server.Addr())
		if err != nil || port == "0" {
			return false
		}
		url = "http://127.0.0.1:" + port + "/api/health"
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, server.Stop())
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not return after Stop")
	}

	_, err := http.Get(url)
	assert.Error(t, err)
}
