package cli

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/ppiankov/veracity/internal/knowledge"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and build knowledge bases",
	Long: `Work with the read-only knowledge base consulted during verification.

Entries are keyed by the fingerprint of their claim: the MD5 hex digest of
the trimmed, lower-cased claim text.`,
}

var kbFingerprintCmd = &cobra.Command{
	Use:   "fingerprint <claim>",
	Short: "Print the fingerprint of a claim",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), knowledge.Fingerprint(strings.Join(args, " ")))
	},
}

var kbLookupCmd = &cobra.Command{
	Use:   "lookup <claim>",
	Short: "Look up a claim in the configured knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		store, closer, err := knowledge.Open(cfg.KnowledgeBase, nil)
		if err != nil {
			return fmt.Errorf("open knowledge base: %w", err)
		}
		defer func() { _ = closer.Close() }()
		if store == nil {
			return fmt.Errorf("no knowledge base configured (set knowledge_base.type and knowledge_base.path)")
		}

		claim := strings.Join(args, " ")
		fp := knowledge.Fingerprint(claim)
		rec, ok := store.Lookup(fp)
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: not found\n", fp)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: verified=%t confidence=%.2f\n", fp, rec.Verified, rec.ConfidenceOrDefault())
		return nil
	},
}

var kbImportCmd = &cobra.Command{
	Use:   "import <file> <badger-dir>",
	Short: "Import a YAML or JSON knowledge file into a Badger database",
	Long: `Import loads facts from a YAML or JSON file and writes them into a Badger
database that can then be configured with knowledge_base.type=badger.

Example:
  veracity kb import facts.yaml ~/.veracity/kb`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := knowledge.NewFileStore(args[0], nil).Records()
		if err != nil {
			return err
		}

		opts := badger.DefaultOptions(args[1]).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return fmt.Errorf("open badger database: %w", err)
		}
		defer func() { _ = db.Close() }()

		n, err := knowledge.Import(db, records)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d records into %s\n", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbFingerprintCmd)
	kbCmd.AddCommand(kbLookupCmd)
	kbCmd.AddCommand(kbImportCmd)
}
