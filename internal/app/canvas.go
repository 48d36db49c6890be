package app

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

const canvasBadgesQuery = `query Badges($account: String!) {
  badges(where: {owner: $account}) { id badgeContract tokenURI }
}`

func (s *runtimeState) canvasRegistry() (common.Address, error) {
	addr, ok := registry.CanvasProfileRegistry(s.chain.EVMChainID)
	if !ok {
		return common.Address{}, clierr.New(clierr.CodeUnsupported, "canvas is not deployed on "+s.chain.Slug)
	}
	return common.HexToAddress(addr), nil
}

func (s *runtimeState) newCanvasCommand() *cobra.Command {
	root := &cobra.Command{Use: "canvas", Short: "Scroll Canvas profiles"}

	var profileAccount string
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile contract, mint state, and attached badges for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddressFlag(profileAccount, "--account")
			if err != nil {
				return err
			}
			req := map[string]any{"account": strings.ToLower(account.Hex()), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				registryAddr, err := s.canvasRegistry()
				if err != nil {
					return nil, nil, nil, false, err
				}
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}

				start := time.Now()
				values, _, err := evm.Call(ctx, client, canvasRegistryABI, registryAddr, "getProfile", []string{account.Hex()})
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				if len(values) == 0 {
					return nil, status, nil, false, clierr.New(clierr.CodeUnavailable, "profile registry returned no data")
				}
				profileAddr := common.HexToAddress(values[0])
				data := model.CanvasProfile{
					Account:        strings.ToLower(account.Hex()),
					ProfileAddress: strings.ToLower(profileAddr.Hex()),
				}

				minted, _, err := evm.Call(ctx, client, canvasRegistryABI, registryAddr, "isProfileMinted", []string{profileAddr.Hex()})
				if err != nil {
					return nil, status, nil, false, err
				}
				data.Minted = len(minted) == 1 && minted[0] == "true"
				if !data.Minted {
					return data, status, nil, false, nil
				}

				warnings := []string{}
				partial := false
				if names, _, err := evm.Call(ctx, client, canvasProfileABI, profileAddr, "username", nil); err == nil && len(names) == 1 {
					data.Username = names[0]
				} else {
					warnings = append(warnings, "username unavailable")
					partial = true
				}
				if badges, _, err := evm.Call(ctx, client, canvasProfileABI, profileAddr, "getAttachedBadges", nil); err == nil {
					data.Badges = badges
					data.BadgeCount = len(badges)
				} else {
					warnings = append(warnings, "attached badges unavailable")
					partial = true
				}
				return data, status, warnings, partial, nil
			})
		},
	}
	profileCmd.Flags().StringVar(&profileAccount, "account", "", "Account address")
	_ = profileCmd.MarkFlagRequired("account")
	root.AddCommand(profileCmd)

	var badgesAccount string
	badgesCmd := &cobra.Command{
		Use:   "badges",
		Short: "Badges held by an account, from the Canvas subgraph",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddressFlag(badgesAccount, "--account")
			if err != nil {
				return err
			}
			req := map[string]any{"account": strings.ToLower(account.Hex()), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				result, err := s.subgraph.Query(ctx, canvasBadgesQuery, map[string]any{
					"account": strings.ToLower(account.Hex()),
				})
				status := []model.ProviderStatus{{Name: s.subgraph.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				if err != nil {
					return nil, status, nil, false, err
				}
				return result, status, nil, false, nil
			})
		},
	}
	badgesCmd.Flags().StringVar(&badgesAccount, "account", "", "Account address")
	_ = badgesCmd.MarkFlagRequired("account")
	root.AddCommand(badgesCmd)

	var (
		checkAccount string
		checkBadge   string
	)
	checkCmd := &cobra.Command{
		Use:   "badge-check",
		Short: "Check whether a badge id is attached to an account's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddressFlag(checkAccount, "--account")
			if err != nil {
				return err
			}
			badge := strings.ToLower(strings.TrimSpace(checkBadge))
			if !strings.HasPrefix(badge, "0x") || len(badge) != 66 {
				return clierr.New(clierr.CodeUsage, "--badge must be a 32-byte hex id")
			}
			req := map[string]any{"account": strings.ToLower(account.Hex()), "badge": badge, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				registryAddr, err := s.canvasRegistry()
				if err != nil {
					return nil, nil, nil, false, err
				}
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}

				start := time.Now()
				values, _, err := evm.Call(ctx, client, canvasRegistryABI, registryAddr, "getProfile", []string{account.Hex()})
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				profileAddr := common.HexToAddress(values[0])

				attached := false
				badges, _, err := evm.Call(ctx, client, canvasProfileABI, profileAddr, "getAttachedBadges", nil)
				if err != nil {
					return nil, status, nil, false, err
				}
				for _, b := range badges {
					if strings.EqualFold(b, badge) {
						attached = true
						break
					}
				}
				data := map[string]any{
					"account":  strings.ToLower(account.Hex()),
					"badge":    badge,
					"attached": attached,
				}
				return data, status, nil, false, nil
			})
		},
	}
	checkCmd.Flags().StringVar(&checkAccount, "account", "", "Account address")
	checkCmd.Flags().StringVar(&checkBadge, "badge", "", "Badge id (32-byte hex)")
	_ = checkCmd.MarkFlagRequired("account")
	_ = checkCmd.MarkFlagRequired("badge")
	root.AddCommand(checkCmd)

	return root
}
