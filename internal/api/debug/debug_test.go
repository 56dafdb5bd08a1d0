package debug

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMux(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(Mux())
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		path string
	}{
		{name: "pprof index", path: "/debug/pprof/"},
		{name: "expvar", path: "/debug/vars"},
		{name: "statsviz dashboard", path: "/debug/statsviz/"},
		{name: "prometheus scrape", path: "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}
