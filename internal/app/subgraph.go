package app

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
)

func (s *runtimeState) newSubgraphCommand() *cobra.Command {
	root := &cobra.Command{Use: "subgraph", Short: "GraphQL queries against a configured subgraph"}

	var (
		queryInline    string
		queryFile      string
		queryVariables string
	)
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Run a GraphQL query",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := queryInline
			if query == "" && queryFile != "" {
				data, err := os.ReadFile(queryFile)
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "read --query-file", err)
				}
				query = string(data)
			}
			if strings.TrimSpace(query) == "" {
				return clierr.New(clierr.CodeUsage, "provide the query with --query or --query-file")
			}

			var variables map[string]any
			if strings.TrimSpace(queryVariables) != "" {
				if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
					return clierr.Wrap(clierr.CodeUsage, "parse --variables json", err)
				}
			}

			req := map[string]any{"query": query, "variables": variables, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				result, err := s.subgraph.Query(ctx, query, variables)
				status := []model.ProviderStatus{{Name: s.subgraph.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				if err != nil {
					return nil, status, nil, false, err
				}
				return result, status, nil, false, nil
			})
		},
	}
	queryCmd.Flags().StringVar(&queryInline, "query", "", "GraphQL query text")
	queryCmd.Flags().StringVar(&queryFile, "query-file", "", "Path to a file holding the query")
	queryCmd.Flags().StringVar(&queryVariables, "variables", "", "Query variables as JSON")
	queryCmd.MarkFlagsMutuallyExclusive("query", "query-file")
	root.AddCommand(queryCmd)

	return root
}
