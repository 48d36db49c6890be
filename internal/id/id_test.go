package id

import "testing"

func TestParseChainSlugAndID(t *testing.T) {
	chain, err := ParseChain("scroll")
	if err != nil {
		t.Fatalf("ParseChain failed: %v", err)
	}
	if chain.EVMChainID != 534352 || chain.L1ChainID != 1 {
		t.Fatalf("unexpected chain: %+v", chain)
	}

	byID, err := ParseChain("534351")
	if err != nil {
		t.Fatalf("ParseChain by id failed: %v", err)
	}
	if byID.Slug != "scroll-sepolia" {
		t.Fatalf("unexpected slug: %s", byID.Slug)
	}

	byCAIP, err := ParseChain("eip155:534352")
	if err != nil {
		t.Fatalf("ParseChain by caip2 failed: %v", err)
	}
	if byCAIP.Slug != "scroll" {
		t.Fatalf("unexpected slug: %s", byCAIP.Slug)
	}

	if _, err := ParseChain("base"); err == nil {
		t.Fatal("expected error for unsupported chain")
	}
}

func TestL1ChainPairing(t *testing.T) {
	chain, _ := ParseChain("scroll-sepolia")
	l1, ok := L1Chain(chain)
	if !ok || l1.EVMChainID != 11155111 {
		t.Fatalf("unexpected l1 pairing: %+v ok=%v", l1, ok)
	}
}

func TestParseAssetSymbolAndAddress(t *testing.T) {
	chain, _ := ParseChain("scroll")

	eth, err := ParseAsset("eth", chain)
	if err != nil {
		t.Fatalf("ParseAsset eth failed: %v", err)
	}
	if !eth.IsNative() || eth.Decimals != 18 {
		t.Fatalf("unexpected native asset: %+v", eth)
	}

	usdc, err := ParseAsset("USDC", chain)
	if err != nil {
		t.Fatalf("ParseAsset USDC failed: %v", err)
	}
	if usdc.Decimals != 6 || usdc.Address == "" {
		t.Fatalf("unexpected usdc asset: %+v", usdc)
	}

	byAddr, err := ParseAsset("0x06efdbff2a14a7c8e15944d1f4a48f9f95f663a4", chain)
	if err != nil {
		t.Fatalf("ParseAsset by address failed: %v", err)
	}
	if byAddr.Symbol != "USDC" {
		t.Fatalf("expected registry match, got %+v", byAddr)
	}

	unknown, err := ParseAsset("0x1111111111111111111111111111111111111111", chain)
	if err != nil {
		t.Fatalf("ParseAsset unknown address failed: %v", err)
	}
	if unknown.Symbol != "" || unknown.Decimals != 0 {
		t.Fatalf("expected unresolved token metadata, got %+v", unknown)
	}

	if _, err := ParseAsset("NOPE", chain); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestChecksumHelpers(t *testing.T) {
	checked, err := ParseAddress("0x06efdbff2a14a7c8e15944d1f4a48f9f95f663a4")
	if err != nil {
		t.Fatalf("ParseAddress failed: %v", err)
	}
	if checked != "0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4" {
		t.Fatalf("unexpected checksum: %s", checked)
	}
	if !IsChecksumAddress(checked) {
		t.Fatal("expected valid checksum")
	}
	if !IsChecksumAddress("0x06efdbff2a14a7c8e15944d1f4a48f9f95f663a4") {
		t.Fatal("all-lower input should be accepted")
	}
	if IsChecksumAddress("0x06EFdBFf2a14a7c8E15944D1F4A48F9F95F663A4") {
		t.Fatal("mixed-case with wrong checksum should be rejected")
	}
}

func TestParseTxHash(t *testing.T) {
	h, err := ParseTxHash("0xAB96ef5f6c8aa6e77c89da0a06b753234d10eeb0ef4ee92340a2471ec480e119")
	if err != nil {
		t.Fatalf("ParseTxHash failed: %v", err)
	}
	if h != "0xab96ef5f6c8aa6e77c89da0a06b753234d10eeb0ef4ee92340a2471ec480e119" {
		t.Fatalf("expected lowercased hash, got %s", h)
	}
	if _, err := ParseTxHash("0x1234"); err == nil {
		t.Fatal("expected error for short hash")
	}
}
