package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/model"
)

const maxLogRange = 10_000

func (s *runtimeState) newEventCommand() *cobra.Command {
	root := &cobra.Command{Use: "event", Short: "Event logs"}

	var logsAddress, logsABI, logsABIFile string
	var logsTopics []string
	var logsFrom, logsTo int64
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Filter logs by address, topics, and block range",
		RunE: func(cmd *cobra.Command, args []string) error {
			var address *common.Address
			if strings.TrimSpace(logsAddress) != "" {
				parsed, err := parseAddressFlag(logsAddress, "--address")
				if err != nil {
					return err
				}
				address = &parsed
			}
			topics := make([]common.Hash, 0, len(logsTopics))
			for _, topic := range logsTopics {
				norm := strings.TrimSpace(topic)
				if !strings.HasPrefix(norm, "0x") || len(norm) != 66 {
					return clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid topic %q; expected 32-byte hex", topic))
				}
				topics = append(topics, common.HexToHash(norm))
			}
			req := map[string]any{"address": logsAddress, "topics": logsTopics, "from": logsFrom, "to": logsTo, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				from := logsFrom
				to := logsTo
				if to <= 0 {
					head, err := client.BlockNumber(ctx)
					if err != nil {
						return nil, nil, nil, false, err
					}
					to = int64(head)
				}
				if from < 0 {
					from = to - 999
					if from < 0 {
						from = 0
					}
				}
				if to-from >= maxLogRange {
					return nil, nil, nil, false, clierr.New(clierr.CodeUsage, fmt.Sprintf("block range too wide; keep it under %d blocks", maxLogRange))
				}

				query := ethereum.FilterQuery{
					FromBlock: big.NewInt(from),
					ToBlock:   big.NewInt(to),
				}
				if address != nil {
					query.Addresses = []common.Address{*address}
				}
				for _, topic := range topics {
					query.Topics = append(query.Topics, []common.Hash{topic})
				}

				start := time.Now()
				logs, err := client.FilterLogs(ctx, query)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, clierr.Wrap(clierr.CodeUnavailable, "eth_getLogs failed", err)
				}

				var decoder *abi.ABI
				warnings := []string{}
				if logsABI != "" || logsABIFile != "" {
					parsed, err := s.resolveContractABI(ctx, logsABI, logsABIFile, logsAddress)
					if err != nil {
						warnings = append(warnings, "abi unavailable; emitting raw logs: "+err.Error())
					} else {
						decoder = &parsed
					}
				}

				summaries := make([]model.LogSummary, 0, len(logs))
				for _, lg := range logs {
					summary := logSummary(lg)
					if decoder != nil {
						decorateLog(&summary, *decoder, lg)
					}
					summaries = append(summaries, summary)
				}
				return summaries, status, warnings, false, nil
			})
		},
	}
	logsCmd.Flags().StringVar(&logsAddress, "address", "", "Contract address filter")
	logsCmd.Flags().StringArrayVar(&logsTopics, "topic", nil, "Topic filter (repeatable, positional)")
	logsCmd.Flags().Int64Var(&logsFrom, "from-block", -1, "Start block (-1 = to-block-999)")
	logsCmd.Flags().Int64Var(&logsTo, "to-block", -1, "End block (-1 = latest)")
	logsCmd.Flags().StringVar(&logsABI, "abi", "", "Inline ABI JSON used to decode matching events")
	logsCmd.Flags().StringVar(&logsABIFile, "abi-file", "", "Path to ABI JSON file used to decode matching events")
	root.AddCommand(logsCmd)

	return root
}

// decorateLog fills EventName and DecodedArgs when the ABI knows the
// log's topic0. Indexed dynamic types stay as raw topic hashes.
func decorateLog(summary *model.LogSummary, decoder abi.ABI, lg types.Log) {
	if len(lg.Topics) == 0 {
		return
	}
	event, err := decoder.EventByID(lg.Topics[0])
	if err != nil {
		return
	}
	summary.EventName = event.Name
	args := map[string]string{}

	indexed := make([]abi.Argument, 0)
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed)+1 == len(lg.Topics) {
		for i, input := range indexed {
			topic := lg.Topics[i+1]
			switch input.Type.T {
			case abi.AddressTy:
				args[input.Name] = common.BytesToAddress(topic.Bytes()).Hex()
			case abi.UintTy, abi.IntTy:
				args[input.Name] = new(big.Int).SetBytes(topic.Bytes()).String()
			default:
				args[input.Name] = topic.Hex()
			}
		}
	}

	if values, err := event.Inputs.NonIndexed().UnpackValues(lg.Data); err == nil {
		position := 0
		for _, input := range event.Inputs {
			if input.Indexed {
				continue
			}
			if position < len(values) {
				formatted := evm.FormatValues([]any{values[position]})
				if len(formatted) == 1 {
					args[input.Name] = formatted[0]
				}
			}
			position++
		}
	}
	if len(args) > 0 {
		summary.DecodedArgs = args
	}
}
