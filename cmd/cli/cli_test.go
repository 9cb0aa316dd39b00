package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theblitlabs/starknet-env/internal/models"
)

func TestRunTrim(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunTrim(&out, []string{"0x1234567890abcdef", "alice.stark"}))
	assert.Equal(t, "0x1234...abcdef\nalice.stark\n", out.String())
}

func newDevnet(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/is_alive", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Alive!!!"))
	})
	mux.HandleFunc("/predeployed_accounts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.DevnetAccount{
			{Address: "0x064b48806902a367c8598f4f95c305e8c1a1acba5f082d294a43793113115691", InitialBalance: "1000000000000000000000"},
		})
	})
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0x534e5f474f45524c49"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, devnetURL string) string {
	t.Helper()
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`
environment:
  default_devnet: "local"
devnets:
  - name: "local"
    url: %q
  - name: "offline"
    url: %q
`, devnetURL, dead.URL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunDevnetAccounts(t *testing.T) {
	path := writeConfig(t, newDevnet(t).URL)

	var out bytes.Buffer
	require.NoError(t, RunDevnetAccounts(context.Background(), &out, path, ""))
	assert.Contains(t, out.String(), "0x064b...115691")
	assert.Contains(t, out.String(), "1000")

	err := RunDevnetAccounts(context.Background(), &out, path, "offline")
	assert.Error(t, err)
}

func TestRunDevnetStatus(t *testing.T) {
	path := writeConfig(t, newDevnet(t).URL)

	var out bytes.Buffer
	require.NoError(t, RunDevnetStatus(context.Background(), &out, path))
	assert.Regexp(t, `local\s+http://\S+\s+alive\s+0x534e5f474f45524c49`, out.String())
	assert.Regexp(t, `offline\s+http://\S+\s+offline\s+-`, out.String())
}
