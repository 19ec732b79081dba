package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	for _, endpoint := range []string{"localhost:9000", "http://localhost:9000", "https://s3.amazonaws.com/"} {
		t.Run(endpoint, func(t *testing.T) {
			client, err := NewClient(Config{Endpoint: endpoint, AccessKey: "key", SecretKey: "secret", Region: "us-east-1"})
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}

	client, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, client)
}

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		endpoint   string
		wantHost   string
		wantSecure bool
	}{
		{"localhost:9000", "localhost:9000", false},
		{"http://minio:9000", "minio:9000", false},
		{"https://s3.amazonaws.com/", "s3.amazonaws.com", true},
	}
	for _, tt := range tests {
		host, secure := endpointHost(tt.endpoint)
		assert.Equal(t, tt.wantHost, host, tt.endpoint)
		assert.Equal(t, tt.wantSecure, secure, tt.endpoint)
	}
}

func TestConfig(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Endpoint: "localhost:9000"}.Enabled())
	assert.Equal(t, defaultTimeout, Config{}.Timeout())
	assert.Equal(t, 5*time.Second, Config{TimeoutSeconds: 5}.Timeout())
}
