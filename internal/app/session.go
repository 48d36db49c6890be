package app

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/watch"
)

func (s *runtimeState) newSessionCommand() *cobra.Command {
	root := &cobra.Command{Use: "session", Short: "Local session keys"}

	var (
		newLabel   string
		newExpires time.Duration
	)
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a session key and record its address",
		Long: "Generates a fresh secp256k1 key. The private key is printed once and " +
			"never written to disk; only the label and address are stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.TrimSpace(newLabel)
			if label == "" {
				return clierr.New(clierr.CodeUsage, "provide a label with --label")
			}
			store, err := s.store()
			if err != nil {
				return err
			}
			if _, err := store.SessionKey(label); err == nil {
				return clierr.New(clierr.CodeUsage, "session key "+label+" already exists")
			} else if !errors.Is(err, watch.ErrSessionKeyNotFound) {
				return clierr.Wrap(clierr.CodeInternal, "check session key", err)
			}

			key, err := crypto.GenerateKey()
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "generate key", err)
			}
			record := model.SessionKeyRecord{
				Label:       label,
				Address:     crypto.PubkeyToAddress(key.PublicKey).Hex(),
				ChainID:     s.chain.CAIP2,
				CreatedUNIX: s.runner.now().Unix(),
			}
			if newExpires > 0 {
				record.ExpiresUNIX = s.runner.now().Add(newExpires).Unix()
			}
			if err := store.SaveSessionKey(record); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "save session key", err)
			}

			data := map[string]any{
				"record":      record,
				"private_key": "0x" + hex.EncodeToString(crypto.FromECDSA(key)),
			}
			warnings := []string{"the private key is shown once and not stored; copy it now"}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, warnings, cacheMetaBypass(), nil, false)
		},
	}
	newCmd.Flags().StringVar(&newLabel, "label", "", "Unique label for the key")
	newCmd.Flags().DurationVar(&newExpires, "expires-in", 0, "Optional validity window (for example 24h)")
	_ = newCmd.MarkFlagRequired("label")
	root.AddCommand(newCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded session keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.store()
			if err != nil {
				return err
			}
			records, err := store.ListSessionKeys()
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list session keys", err)
			}
			now := s.runner.now().Unix()
			warnings := []string{}
			for _, r := range records {
				if r.ExpiresUNIX > 0 && r.ExpiresUNIX < now && !r.Revoked {
					warnings = append(warnings, "session key "+r.Label+" has expired")
				}
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), records, warnings, cacheMetaBypass(), nil, false)
		},
	}
	root.AddCommand(listCmd)

	var revokeLabel string
	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Mark a session key as revoked",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.store()
			if err != nil {
				return err
			}
			record, err := store.RevokeSessionKey(strings.TrimSpace(revokeLabel))
			if err != nil {
				if errors.Is(err, watch.ErrSessionKeyNotFound) {
					return clierr.New(clierr.CodeUsage, "unknown session key "+revokeLabel)
				}
				return clierr.Wrap(clierr.CodeInternal, "revoke session key", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), record, nil, cacheMetaBypass(), nil, false)
		},
	}
	revokeCmd.Flags().StringVar(&revokeLabel, "label", "", "Label of the key to revoke")
	_ = revokeCmd.MarkFlagRequired("label")
	root.AddCommand(revokeCmd)

	return root
}
