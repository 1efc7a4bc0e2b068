package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deviceops/go-fscrypt/internal/types"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List supported encryption modes, mode pairs and flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		contentModes := []types.EncryptionMode{types.ModeAES256XTS, types.ModePrivate}
		filenameModes := []types.EncryptionMode{types.ModeAES256CTS}

		if outputFormat == "json" {
			out := map[string]any{
				"pairs": []map[string]string{
					{"contents": types.ModeAES256XTS.String(), "filenames": types.ModeAES256CTS.String()},
					{"contents": types.ModePrivate.String(), "filenames": types.ModeAES256CTS.String()},
				},
				"flags": map[string]string{
					"pad_mask":        fmt.Sprintf("0x%02x", types.PolicyFlagsPadMask),
					"direct_key":      fmt.Sprintf("0x%02x", types.PolicyFlagDirectKey),
					"iv_ino_lblk_32":  fmt.Sprintf("0x%02x", types.PolicyFlagIVInoLblk32),
					"valid_flag_mask": fmt.Sprintf("0x%02x", types.PolicyFlagsValid),
				},
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Println("Supported mode pairs (contents / filenames):")
		for _, cm := range contentModes {
			for _, fm := range filenameModes {
				if types.ValidModePair(cm, fm) {
					fmt.Printf("  %-12s / %s (key size %d)\n", cm, fm, types.ModeKeySize(cm))
				}
			}
		}

		fmt.Println("\nPolicy flags:")
		fmt.Printf("  0x%02x  filename padding mask\n", types.PolicyFlagsPadMask)
		fmt.Printf("  0x%02x  direct key\n", types.PolicyFlagDirectKey)
		fmt.Printf("  0x%02x  IV derivation variant (hardware queue hint, masked in comparisons)\n", types.PolicyFlagIVInoLblk32)

		return nil
	},
}
