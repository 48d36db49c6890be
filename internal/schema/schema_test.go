package schema

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestBuildSchema(t *testing.T) {
	root := &cobra.Command{Use: "scroll"}
	child := &cobra.Command{Use: "gas", Short: "gas cmds"}
	leaf := &cobra.Command{Use: "estimate", Short: "estimate fee"}
	leaf.Flags().Int("limit", 20, "limit results")
	child.AddCommand(leaf)
	root.AddCommand(child)

	s, err := Build(root, "gas estimate")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "scroll gas estimate" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	if len(s.Flags) != 1 || s.Flags[0].Name != "limit" {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
}
