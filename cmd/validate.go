package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	policycodec "github.com/deviceops/go-fscrypt/internal/parsers/policy"
	"github.com/deviceops/go-fscrypt/internal/services"
	"github.com/deviceops/go-fscrypt/internal/types"
)

var (
	validateContentsMode  string
	validateFilenamesMode string
	validateFlags         uint8
	validateDescriptor    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a proposed encryption policy for validity",
	Long: `Check whether a proposed policy would be accepted by a set-policy call:
the mode pair must be supported, only recognized flag bits may be set, and
the IV-derivation-variant flag requires the hardware-private content mode.
The hardware-capability assumption comes from configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		contents, err := parseMode(validateContentsMode)
		if err != nil {
			return err
		}
		filenames, err := parseMode(validateFilenamesMode)
		if err != nil {
			return err
		}

		descriptor, err := parseDescriptor(validateDescriptor)
		if err != nil {
			return err
		}

		policy := &types.EncryptionPolicy{
			Version:             types.PolicyVersion,
			ContentsMode:        contents,
			FilenamesMode:       filenames,
			Flags:               validateFlags,
			MasterKeyDescriptor: descriptor,
		}

		effective := services.EffectiveContentsMode(policy.ContentsMode, hardwareCapable())

		if _, err := policycodec.BuildContext(policy, effective, nil); err != nil {
			return err
		}

		fmt.Printf("Policy is valid (effective contents mode: %s)\n", effective)
		return nil
	},
}

// parseMode resolves a mode name to its identifier.
func parseMode(name string) (types.EncryptionMode, error) {
	for _, mode := range []types.EncryptionMode{
		types.ModeAES256XTS,
		types.ModeAES256GCM,
		types.ModeAES256CBC,
		types.ModeAES256CTS,
		types.ModePrivate,
	} {
		if mode.String() == name {
			return mode, nil
		}
	}
	return types.ModeInvalid, fmt.Errorf("unknown encryption mode %q", name)
}

// parseDescriptor decodes an 8-byte hex master key descriptor.
func parseDescriptor(s string) (types.KeyDescriptor, error) {
	var descriptor types.KeyDescriptor

	raw, err := hex.DecodeString(s)
	if err != nil {
		return descriptor, fmt.Errorf("invalid descriptor hex: %w", err)
	}
	if len(raw) != types.KeyDescriptorSize {
		return descriptor, fmt.Errorf("descriptor must be %d bytes, got %d", types.KeyDescriptorSize, len(raw))
	}

	copy(descriptor[:], raw)
	return descriptor, nil
}

func init() {
	validateCmd.Flags().StringVar(&validateContentsMode, "contents-mode", "aes-256-xts", "content encryption mode")
	validateCmd.Flags().StringVar(&validateFilenamesMode, "filenames-mode", "aes-256-cts", "filename encryption mode")
	validateCmd.Flags().Uint8Var(&validateFlags, "flags", 0, "policy flags bitmask")
	validateCmd.Flags().StringVar(&validateDescriptor, "descriptor", "0000000000000000", "master key descriptor (16 hex digits)")
}
