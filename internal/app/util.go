package app

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
)

// Exponents for the native unit ladder. Token units use --decimals.
var unitExponents = map[string]int{
	"wei":  0,
	"gwei": 9,
	"eth":  18,
}

func unitExponent(unit string, tokenDecimals int) (int, error) {
	name := strings.ToLower(strings.TrimSpace(unit))
	if name == "token" {
		if tokenDecimals < 0 || tokenDecimals > 77 {
			return 0, clierr.New(clierr.CodeUsage, "--decimals must be between 0 and 77")
		}
		return tokenDecimals, nil
	}
	exp, ok := unitExponents[name]
	if !ok {
		return 0, clierr.New(clierr.CodeUsage, "unknown unit "+unit+" (expected wei, gwei, eth, or token)")
	}
	return exp, nil
}

func (s *runtimeState) newUtilCommand() *cobra.Command {
	root := &cobra.Command{Use: "util", Short: "Offline helpers"}

	var checksumAddress string
	checksumCmd := &cobra.Command{
		Use:   "checksum",
		Short: "Format an address with its EIP-55 checksum",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(checksumAddress) {
				return clierr.New(clierr.CodeUsage, "invalid address for --address")
			}
			data := map[string]any{
				"input":    checksumAddress,
				"checksum": common.HexToAddress(checksumAddress).Hex(),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	checksumCmd.Flags().StringVar(&checksumAddress, "address", "", "Address to checksum")
	_ = checksumCmd.MarkFlagRequired("address")
	root.AddCommand(checksumCmd)

	var validateAddress string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate address syntax and its checksum casing",
		RunE: func(cmd *cobra.Command, args []string) error {
			valid := common.IsHexAddress(validateAddress)
			data := map[string]any{
				"input": validateAddress,
				"valid": valid,
			}
			if valid {
				checksummed := common.HexToAddress(validateAddress).Hex()
				data["checksum"] = checksummed
				mixedCase := validateAddress != strings.ToLower(validateAddress) &&
					validateAddress != "0x"+strings.ToUpper(strings.TrimPrefix(validateAddress, "0x"))
				data["checksum_valid"] = !mixedCase || validateAddress == checksummed
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	validateCmd.Flags().StringVar(&validateAddress, "address", "", "Address to validate")
	_ = validateCmd.MarkFlagRequired("address")
	root.AddCommand(validateCmd)

	var (
		convertAmount   string
		convertFrom     string
		convertTo       string
		convertDecimals int
	)
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between wei, gwei, eth, and token units",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromExp, err := unitExponent(convertFrom, convertDecimals)
			if err != nil {
				return err
			}
			toExp, err := unitExponent(convertTo, convertDecimals)
			if err != nil {
				return err
			}
			base, err := id.ParseUnits(convertAmount, fromExp)
			if err != nil {
				return err
			}
			data := model.ConversionResult{
				Input:      convertAmount,
				InputUnit:  strings.ToLower(convertFrom),
				Output:     id.FormatUnits(base, toExp),
				OutputUnit: strings.ToLower(convertTo),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	convertCmd.Flags().StringVar(&convertAmount, "amount", "", "Amount to convert (decimal)")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "Source unit: wei, gwei, eth, or token")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target unit: wei, gwei, eth, or token")
	convertCmd.Flags().IntVar(&convertDecimals, "decimals", 18, "Token decimals when a side uses the token unit")
	_ = convertCmd.MarkFlagRequired("amount")
	_ = convertCmd.MarkFlagRequired("from")
	_ = convertCmd.MarkFlagRequired("to")
	root.AddCommand(convertCmd)

	var keccakHex bool
	keccakCmd := &cobra.Command{
		Use:   "keccak <data>",
		Short: "Keccak-256 of text or hex bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			if keccakHex {
				decoded, err := evm.DecodeHex(args[0])
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "parse hex input", err)
				}
				payload = decoded
			} else {
				payload = []byte(args[0])
			}
			data := map[string]any{
				"input": args[0],
				"hash":  "0x" + hex.EncodeToString(crypto.Keccak256(payload)),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	keccakCmd.Flags().BoolVar(&keccakHex, "hex", false, "Treat the input as hex bytes instead of UTF-8 text")
	root.AddCommand(keccakCmd)

	var (
		encodeABI     string
		encodeABIFile string
		encodeMethod  string
		encodeArgs    []string
	)
	encodeCmd := &cobra.Command{
		Use:   "abi-encode",
		Short: "Pack a method call into calldata",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := loadInlineABI(encodeABI, encodeABIFile)
			if err != nil {
				return err
			}
			calldata, err := evm.PackCall(parsed, encodeMethod, encodeArgs)
			if err != nil {
				return err
			}
			data := map[string]any{
				"method":   encodeMethod,
				"calldata": "0x" + hex.EncodeToString(calldata),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	encodeCmd.Flags().StringVar(&encodeABI, "abi", "", "ABI JSON")
	encodeCmd.Flags().StringVar(&encodeABIFile, "abi-file", "", "Path to an ABI JSON file")
	encodeCmd.Flags().StringVar(&encodeMethod, "method", "", "Method name")
	encodeCmd.Flags().StringArrayVar(&encodeArgs, "arg", nil, "Method argument, repeatable")
	encodeCmd.MarkFlagsMutuallyExclusive("abi", "abi-file")
	_ = encodeCmd.MarkFlagRequired("method")
	root.AddCommand(encodeCmd)

	var (
		decodeABI     string
		decodeABIFile string
		decodeMethod  string
		decodeData    string
	)
	decodeCmd := &cobra.Command{
		Use:   "abi-decode",
		Short: "Decode return data for a method",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := loadInlineABI(decodeABI, decodeABIFile)
			if err != nil {
				return err
			}
			raw, err := evm.DecodeHex(decodeData)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "parse --data", err)
			}
			values, err := parsed.Unpack(decodeMethod, raw)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "decode return data", err)
			}
			data := map[string]any{
				"method":  decodeMethod,
				"outputs": evm.FormatValues(values),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	decodeCmd.Flags().StringVar(&decodeABI, "abi", "", "ABI JSON")
	decodeCmd.Flags().StringVar(&decodeABIFile, "abi-file", "", "Path to an ABI JSON file")
	decodeCmd.Flags().StringVar(&decodeMethod, "method", "", "Method name")
	decodeCmd.Flags().StringVar(&decodeData, "data", "", "Return data hex")
	decodeCmd.MarkFlagsMutuallyExclusive("abi", "abi-file")
	_ = decodeCmd.MarkFlagRequired("method")
	_ = decodeCmd.MarkFlagRequired("data")
	root.AddCommand(decodeCmd)

	var topicEvent string
	topicCmd := &cobra.Command{
		Use:   "topic0",
		Short: "Event signature hash for log filtering",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig := strings.ReplaceAll(strings.TrimSpace(topicEvent), " ", "")
			if sig == "" || !strings.Contains(sig, "(") || !strings.HasSuffix(sig, ")") {
				return clierr.New(clierr.CodeUsage, "--event expects a signature like Transfer(address,address,uint256)")
			}
			data := map[string]any{
				"event":  sig,
				"topic0": "0x" + hex.EncodeToString(crypto.Keccak256([]byte(sig))),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	topicCmd.Flags().StringVar(&topicEvent, "event", "", "Event signature")
	_ = topicCmd.MarkFlagRequired("event")
	root.AddCommand(topicCmd)

	var (
		signMessage string
		signKey     writeFlags
	)
	signCmd := &cobra.Command{
		Use:   "sign-message",
		Short: "Sign a personal message with the local key",
		RunE: func(cmd *cobra.Command, args []string) error {
			msgSigner, err := signKey.signer()
			if err != nil {
				return err
			}
			sig, err := msgSigner.SignMessage([]byte(signMessage))
			if err != nil {
				return clierr.Wrap(clierr.CodeSigner, "sign message", err)
			}
			data := model.SignatureResult{
				Address:   msgSigner.Address().Hex(),
				Message:   signMessage,
				Signature: "0x" + hex.EncodeToString(sig),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	signCmd.Flags().StringVar(&signMessage, "message", "", "Message text")
	signCmd.Flags().StringVar(&signKey.keySource, "key-source", "auto", "Where to load the key from: auto, env, file, or keystore")
	signCmd.Flags().StringVar(&signKey.privateKey, "private-key", "", "Private key hex (overrides the key source)")
	_ = signCmd.MarkFlagRequired("message")
	root.AddCommand(signCmd)

	var (
		verifyMessage   string
		verifySignature string
		verifyAddress   string
	)
	verifyCmd := &cobra.Command{
		Use:   "verify-message",
		Short: "Recover the signer of a personal message signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := evm.DecodeHex(verifySignature)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "parse --signature", err)
			}
			if len(sig) != 65 {
				return clierr.New(clierr.CodeUsage, "signature must be 65 bytes")
			}
			adjusted := make([]byte, 65)
			copy(adjusted, sig)
			if adjusted[64] >= 27 {
				adjusted[64] -= 27
			}
			pub, err := crypto.SigToPub(accounts.TextHash([]byte(verifyMessage)), adjusted)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "recover signer", err)
			}
			recovered := crypto.PubkeyToAddress(*pub)
			data := model.SignatureResult{
				Message:   verifyMessage,
				Signature: verifySignature,
				Recovered: recovered.Hex(),
			}
			if verifyAddress != "" {
				expected, err := parseAddressFlag(verifyAddress, "--address")
				if err != nil {
					return err
				}
				data.Address = expected.Hex()
				data.Valid = recovered == expected
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	verifyCmd.Flags().StringVar(&verifyMessage, "message", "", "Message text")
	verifyCmd.Flags().StringVar(&verifySignature, "signature", "", "Signature hex")
	verifyCmd.Flags().StringVar(&verifyAddress, "address", "", "Expected signer address")
	_ = verifyCmd.MarkFlagRequired("message")
	_ = verifyCmd.MarkFlagRequired("signature")
	root.AddCommand(verifyCmd)

	return root
}

func loadInlineABI(raw, file string) (abi.ABI, error) {
	if strings.TrimSpace(raw) != "" {
		return evm.ParseABI(raw)
	}
	if strings.TrimSpace(file) == "" {
		return abi.ABI{}, clierr.New(clierr.CodeUsage, "provide the abi with --abi or --abi-file")
	}
	buf, err := os.ReadFile(file)
	if err != nil {
		return abi.ABI{}, clierr.Wrap(clierr.CodeUsage, "read --abi-file", err)
	}
	return evm.ParseABI(string(buf))
}
