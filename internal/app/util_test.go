package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runUtilCommand(t *testing.T, args ...string) map[string]any {
	t.Helper()
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run(append(args, "--results-only"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse output json: %v output=%s", err, stdout.String())
	}
	return out
}

func TestUtilChecksum(t *testing.T) {
	out := runUtilCommand(t, "util", "checksum", "--address", "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	if out["checksum"] != "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359" {
		t.Fatalf("unexpected checksum: %v", out["checksum"])
	}
}

func TestUtilValidateRejectsShortAddress(t *testing.T) {
	out := runUtilCommand(t, "util", "validate", "--address", "0x123")
	if out["valid"] != false {
		t.Fatalf("expected valid=false, got %v", out["valid"])
	}
}

func TestUtilConvert(t *testing.T) {
	out := runUtilCommand(t, "util", "convert", "--amount", "1", "--from", "eth", "--to", "wei")
	if out["output"] != "1000000000000000000" {
		t.Fatalf("unexpected wei output: %v", out["output"])
	}

	out = runUtilCommand(t, "util", "convert", "--amount", "1500000000", "--from", "wei", "--to", "gwei")
	if out["output"] != "1.5" {
		t.Fatalf("unexpected gwei output: %v", out["output"])
	}

	out = runUtilCommand(t, "util", "convert", "--amount", "2.5", "--from", "token", "--to", "wei", "--decimals", "6")
	if out["output"] != "2500000" {
		t.Fatalf("unexpected token output: %v", out["output"])
	}
}

func TestUtilTopic0(t *testing.T) {
	out := runUtilCommand(t, "util", "topic0", "--event", "Transfer(address, address, uint256)")
	if out["topic0"] != "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef" {
		t.Fatalf("unexpected topic0: %v", out["topic0"])
	}
}

func TestUtilABIEncodeDecode(t *testing.T) {
	abiJSON := `[{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`

	out := runUtilCommand(t, "util", "abi-encode",
		"--abi", abiJSON,
		"--method", "balanceOf",
		"--arg", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	calldata, _ := out["calldata"].(string)
	if !strings.HasPrefix(calldata, "0x70a08231") {
		t.Fatalf("unexpected calldata: %s", calldata)
	}

	returnData := "0x" + strings.Repeat("0", 63) + "1"
	out = runUtilCommand(t, "util", "abi-decode",
		"--abi", abiJSON,
		"--method", "balanceOf",
		"--data", returnData)
	outputs, ok := out["outputs"].([]any)
	if !ok || len(outputs) != 1 || outputs[0] != "1" {
		t.Fatalf("unexpected outputs: %v", out["outputs"])
	}
}

func TestUtilSignAndVerifyMessage(t *testing.T) {
	key := "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	address := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	signed := runUtilCommand(t, "util", "sign-message",
		"--message", "hello scroll",
		"--private-key", key)
	if signed["address"] != address {
		t.Fatalf("unexpected signer address: %v", signed["address"])
	}
	signature, _ := signed["signature"].(string)
	if len(signature) != 132 {
		t.Fatalf("unexpected signature length: %d", len(signature))
	}

	verified := runUtilCommand(t, "util", "verify-message",
		"--message", "hello scroll",
		"--signature", signature,
		"--address", address)
	if verified["valid"] != true {
		t.Fatalf("expected valid=true, got %v", verified["valid"])
	}
	if verified["recovered"] != address {
		t.Fatalf("unexpected recovered address: %v", verified["recovered"])
	}
}

func TestUtilVerifyMessageWrongSigner(t *testing.T) {
	key := "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	signed := runUtilCommand(t, "util", "sign-message", "--message", "hello", "--private-key", key)
	signature, _ := signed["signature"].(string)

	verified := runUtilCommand(t, "util", "verify-message",
		"--message", "hello",
		"--signature", signature,
		"--address", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	if valid, ok := verified["valid"].(bool); ok && valid {
		t.Fatalf("expected verification to fail for the wrong address")
	}
}
