package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	policycodec "github.com/deviceops/go-fscrypt/internal/parsers/policy"
	"github.com/deviceops/go-fscrypt/internal/services"
)

var inspectIsDirectory bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <hex-record|@file>",
	Short: "Decode a serialized encryption context record",
	Long: `Decode a serialized on-disk encryption context record and print the
policy it encodes, with reporting translation applied. The record is given
as a hex string on the command line, or read from a file with @path.

The key-derivation nonce is part of the record but is never printed; it is
not part of the reported policy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := readRecordArg(args[0])
		if err != nil {
			return err
		}

		reader, err := policycodec.NewContextReader(record)
		if err != nil {
			return err
		}

		policy := reader.Policy()
		reported := services.ReportedContentsMode(policy.ContentsMode, inspectIsDirectory)

		switch outputFormat {
		case "json":
			out := map[string]any{
				"version":               policy.Version,
				"contents_mode":         reported.String(),
				"filenames_mode":        policy.FilenamesMode.String(),
				"flags":                 fmt.Sprintf("0x%02x", policy.Flags),
				"master_key_descriptor": hex.EncodeToString(policy.MasterKeyDescriptor[:]),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)

		default:
			fmt.Printf("Version:         %d\n", policy.Version)
			fmt.Printf("Contents mode:   %s\n", reported)
			fmt.Printf("Filenames mode:  %s\n", policy.FilenamesMode)
			fmt.Printf("Flags:           0x%02x\n", policy.Flags)
			fmt.Printf("Key descriptor:  %s\n", hex.EncodeToString(policy.MasterKeyDescriptor[:]))
			if verbose && reported != reader.ContentsMode() {
				fmt.Printf("Stored contents mode %s reported as %s\n", reader.ContentsMode(), reported)
			}
			return nil
		}
	},
}

// readRecordArg resolves the record argument: @path reads a raw record file,
// anything else is a hex string.
func readRecordArg(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read record file: %w", err)
		}
		return data, nil
	}

	record, err := hex.DecodeString(strings.TrimSpace(arg))
	if err != nil {
		return nil, fmt.Errorf("invalid hex record: %w", err)
	}
	return record, nil
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectIsDirectory, "dir", false, "treat the record's owner as a directory for mode reporting")
}
