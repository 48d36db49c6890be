package app

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/rollup"
)

func (s *runtimeState) newTxCommand() *cobra.Command {
	root := &cobra.Command{Use: "tx", Short: "Transactions"}

	var getHash string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Transaction by hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := id.ParseTxHash(getHash)
			if err != nil {
				return err
			}
			req := map[string]any{"hash": hash, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				tx, pending, err := client.TransactionByHash(ctx, common.HexToHash(hash))
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, wrapNotFound(err, "transaction "+hash)
				}
				summary := s.txToSummary(tx, pending, 0, 0, "")
				if !pending {
					if rcpt, err := client.TransactionReceipt(ctx, common.HexToHash(hash)); err == nil {
						head, _ := client.BlockNumber(ctx)
						summary = s.txToSummary(tx, false, head, rcpt.BlockNumber.Uint64(), rcpt.BlockHash.Hex())
						summary.Status = receiptStatus(rcpt)
						summary.GasUsed = rcpt.GasUsed
						summary.EffectiveGas = rcpt.EffectiveGasPrice.String()
					}
				}
				return summary, status, nil, false, nil
			})
		},
	}
	getCmd.Flags().StringVar(&getHash, "hash", "", "Transaction hash")
	_ = getCmd.MarkFlagRequired("hash")
	root.AddCommand(getCmd)

	var receiptHash string
	var receiptNoLogs bool
	receiptCmd := &cobra.Command{
		Use:   "receipt",
		Short: "Transaction receipt with logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := id.ParseTxHash(receiptHash)
			if err != nil {
				return err
			}
			req := map[string]any{"hash": hash, "logs": !receiptNoLogs, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				rcpt, err := client.TransactionReceipt(ctx, common.HexToHash(hash))
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, wrapNotFound(err, "receipt for "+hash)
				}
				return s.receiptToSummary(rcpt, !receiptNoLogs), status, nil, false, nil
			})
		},
	}
	receiptCmd.Flags().StringVar(&receiptHash, "hash", "", "Transaction hash")
	receiptCmd.Flags().BoolVar(&receiptNoLogs, "no-logs", false, "Omit logs from the receipt")
	_ = receiptCmd.MarkFlagRequired("hash")
	root.AddCommand(receiptCmd)

	var statusHash string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Transaction status with confirmations and finality",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := id.ParseTxHash(statusHash)
			if err != nil {
				return err
			}
			req := map[string]any{"hash": hash, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				tx, pending, err := client.TransactionByHash(ctx, common.HexToHash(hash))
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, wrapNotFound(err, "transaction "+hash)
				}
				if pending {
					summary := s.txToSummary(tx, true, 0, 0, "")
					summary.Status = "pending"
					return summary, status, nil, false, nil
				}
				rcpt, err := client.TransactionReceipt(ctx, common.HexToHash(hash))
				if err != nil {
					return nil, status, nil, false, wrapNotFound(err, "receipt for "+hash)
				}
				head, err := client.BlockNumber(ctx)
				if err != nil {
					return nil, status, nil, false, err
				}
				summary := s.txToSummary(tx, false, head, rcpt.BlockNumber.Uint64(), rcpt.BlockHash.Hex())
				summary.Status = receiptStatus(rcpt)
				summary.GasUsed = rcpt.GasUsed
				summary.EffectiveGas = rcpt.EffectiveGasPrice.String()

				warnings := []string{}
				finalized, err := finalizedBlockNumber(ctx, client)
				if err != nil {
					warnings = append(warnings, "finalized block unavailable; finality omitted")
					return summary, status, warnings, false, nil
				}
				summary.FinalityStatus = rollup.ClassifyFinality(rcpt.BlockNumber.Uint64(), head, finalized)
				return summary, status, warnings, false, nil
			})
		},
	}
	statusCmd.Flags().StringVar(&statusHash, "hash", "", "Transaction hash")
	_ = statusCmd.MarkFlagRequired("hash")
	root.AddCommand(statusCmd)

	var sendTo string
	var sendAmount string
	var sendFlags writeFlags
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send native ETH",
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddressFlag(sendTo, "--to")
			if err != nil {
				return err
			}
			valueBase, err := id.ParseUnits(sendAmount, 18)
			if err != nil {
				return err
			}
			valueWei, err := parseBig(valueBase, "--amount")
			if err != nil {
				return err
			}
			txSigner, err := sendFlags.signer()
			if err != nil {
				return err
			}
			opts, err := sendFlags.options(valueWei)
			if err != nil {
				return err
			}

			ctx, cancel := s.writeContext(sendFlags)
			defer cancel()
			client, err := s.l2(ctx)
			if err != nil {
				return err
			}
			result, err := evm.Write(ctx, client, txSigner, to, nil, opts)
			if err != nil {
				return err
			}
			data := s.writeResultModel(txSigner.Address(), to, "", result)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "Amount in ETH (decimal)")
	addWriteFlags(sendCmd, &sendFlags)
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
	root.AddCommand(sendCmd)

	var waitHash string
	var waitConfirmations uint64
	var waitTimeout, waitPoll string
	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until a transaction reaches the requested depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := id.ParseTxHash(waitHash)
			if err != nil {
				return err
			}
			timeout, err := time.ParseDuration(waitTimeout)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "parse --wait-timeout", err)
			}
			poll, err := time.ParseDuration(waitPoll)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "parse --poll-interval", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout+s.settings.Timeout)
			defer cancel()
			client, err := s.l2(ctx)
			if err != nil {
				return err
			}
			rcpt, err := awaitReceipt(ctx, client, common.HexToHash(hash), waitConfirmations, poll, timeout)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), s.receiptToSummary(rcpt, false), nil, cacheMetaBypass(), nil, false)
		},
	}
	waitCmd.Flags().StringVar(&waitHash, "hash", "", "Transaction hash")
	waitCmd.Flags().Uint64Var(&waitConfirmations, "confirmations", 1, "Required confirmation depth")
	waitCmd.Flags().StringVar(&waitTimeout, "wait-timeout", "2m", "Give up after this long")
	waitCmd.Flags().StringVar(&waitPoll, "poll-interval", "2s", "Receipt polling interval")
	_ = waitCmd.MarkFlagRequired("hash")
	root.AddCommand(waitCmd)

	return root
}

func awaitReceipt(ctx context.Context, client *ethclient.Client, hash common.Hash, confirmations uint64, poll, timeout time.Duration) (*types.Receipt, error) {
	if confirmations == 0 {
		confirmations = 1
	}
	deadline := time.Now().Add(timeout)
	for {
		rcpt, err := client.TransactionReceipt(ctx, hash)
		if err == nil {
			head, headErr := client.BlockNumber(ctx)
			if headErr == nil && head >= rcpt.BlockNumber.Uint64()+confirmations-1 {
				return rcpt, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, clierr.New(clierr.CodeTxTimeout, "transaction "+hash.Hex()+" not confirmed before deadline")
		}
		select {
		case <-ctx.Done():
			return nil, clierr.Wrap(clierr.CodeTxTimeout, "wait cancelled", ctx.Err())
		case <-time.After(poll):
		}
	}
}

func finalizedBlockNumber(ctx context.Context, client *ethclient.Client) (uint64, error) {
	header, err := client.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

func wrapNotFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ethereum.NotFound) {
		return clierr.New(clierr.CodeUsage, what+" not found")
	}
	return clierr.Wrap(clierr.CodeUnavailable, "rpc request failed", err)
}
