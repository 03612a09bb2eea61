package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "", "socks5://10.0.0.2:1080", "ftp://bad"}, "")
	require.True(t, pm.HasProxies())

	first, err := pm.GetCurrentProxy()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", first)

	pm.RotateProxy()
	second, _ := pm.GetCurrentProxy()
	assert.Equal(t, "socks5://10.0.0.2:1080", second)

	pm.RotateProxy()
	again, _ := pm.GetCurrentProxy()
	assert.Equal(t, first, again)
}

func TestProxyManagerWithoutProxies(t *testing.T) {
	pm := NewProxyManager(nil, "stockdash-test/1.0")
	assert.False(t, pm.HasProxies())

	p, err := pm.GetCurrentProxy()
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Equal(t, "stockdash-test/1.0", pm.GetUserAgent())
}
