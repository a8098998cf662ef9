package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	edgeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func TestClassifyBrowser(t *testing.T) {
	t.Run("Chrome Beats Safari Token", func(t *testing.T) {
		assert.Equal(t, "Chrome", ClassifyBrowser(chromeUA))
	})

	t.Run("Edge Beats Chrome Token", func(t *testing.T) {
		assert.Equal(t, "Edge", ClassifyBrowser(edgeUA))
	})

	t.Run("Plain Safari", func(t *testing.T) {
		assert.Equal(t, "Safari", ClassifyBrowser(safariUA))
	})

	t.Run("Firefox", func(t *testing.T) {
		assert.Equal(t, "Firefox", ClassifyBrowser(firefoxUA))
	})

	t.Run("Unknown Defaults To Other", func(t *testing.T) {
		assert.Equal(t, "Other", ClassifyBrowser("curl/8.4.0"))
		assert.Equal(t, "Other", ClassifyBrowser(""))
	})
}

func TestClassifyDevice(t *testing.T) {
	t.Run("iPad Beats Mobile Token", func(t *testing.T) {
		// The iPad UA contains "Mobile"; the tablet rule must win.
		assert.Equal(t, "Tablet", ClassifyDevice(ipadUA))
	})

	t.Run("iPhone Is Mobile", func(t *testing.T) {
		assert.Equal(t, "Mobile", ClassifyDevice(iphoneUA))
	})

	t.Run("Desktop Default", func(t *testing.T) {
		assert.Equal(t, "Desktop", ClassifyDevice(chromeUA))
		assert.Equal(t, "Desktop", ClassifyDevice(""))
	})
}
