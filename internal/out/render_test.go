package out

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/scrollkit/scroll-cli/internal/config"
	"github.com/scrollkit/scroll-cli/internal/model"
)

func TestRenderJSONSelectResultsOnly(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data: []map[string]any{{
			"hash":  "0xabc",
			"value": "1000000000000000000",
			"nonce": 7,
		}},
		Meta: model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"hash", "value"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["hash"] != "0xabc" || out[0]["value"] != "1000000000000000000" {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if _, ok := out[0]["nonce"]; ok {
		t.Fatalf("field projection failed: %s", buf.String())
	}
}

func TestRenderPlainSortsKeys(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"symbol": "USDC", "decimals": 6}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if line != "decimals=6 symbol=USDC" {
		t.Fatalf("unexpected plain output: %q", line)
	}
}

func TestRenderPlainEmptySlice(t *testing.T) {
	env := model.Envelope{Version: "v1", Success: true, Data: []map[string]any{}}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("unexpected output for empty slice: %q", buf.String())
	}
}
