package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/spf13/cobra"
)

type generateKeypairCmdOptions struct {
	Path string
}

func NewGenerateKeypairCommand() *cobra.Command {
	opts := &generateKeypairCmdOptions{}

	cmd := &cobra.Command{
		Use:   "generate-keypair",
		Short: "Generate new secp256k1 keypair for a guardian or a sale authority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateKeypairHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Path, "path", "/data/keys", `Path to save to key pair file`)

	return cmd
}

func generateKeypairHandler(opts *generateKeypairCmdOptions, _ *cobra.Command, _ []string) error {
	fmt.Printf("Generating key pair\n")
	privKeyBytes := make([]byte, 32)

	_, err := rand.Read(privKeyBytes)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "random bytes")
	}
	client, err := crypto.New(hex.EncodeToString(privKeyBytes))
	if err != nil {
		return errors.Wrap(err, "new crypto client")
	}
	serializedPubKey := client.PublicKey().SerializeCompressed()
	authority := client.Address()

	fmt.Printf("Public key: %s\n", hex.EncodeToString(serializedPubKey))
	fmt.Printf("Authority address: 0x%s\n", hex.EncodeToString(authority[:]))
	err = os.MkdirAll(opts.Path, 0o755)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "create directory")
	}

	privateKeyPath := path.Join(opts.Path, "priv.key")

	_, err = os.Stat(privateKeyPath)
	if err == nil {
		fmt.Printf("Existing private key found at %s\n[WARNING] THE EXISTING PRIVATE KEY WILL BE LOST\nType [replace] to replace existing private key: ", privateKeyPath)
		var ans string
		fmt.Scanln(&ans)
		if ans != "replace" {
			fmt.Printf("Keypair generation aborted\n")
			return nil
		}
	}

	err = os.WriteFile(privateKeyPath, []byte(hex.EncodeToString(privKeyBytes)), 0o600)
	if err != nil {
		return errors.Wrap(err, "write private key file")
	}
	fmt.Printf("Private key saved at %s\n", privateKeyPath)

	publicKeyPath := path.Join(opts.Path, "pub.key")
	err = os.WriteFile(publicKeyPath, []byte(hex.EncodeToString(serializedPubKey)), 0o644)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "write public key file")
	}
	fmt.Printf("Public key saved at %s\n", publicKeyPath)

	authorityPath := path.Join(opts.Path, "authority.addr")
	err = os.WriteFile(authorityPath, []byte("0x"+hex.EncodeToString(authority[:])), 0o644)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "write authority address file")
	}
	fmt.Printf("Authority address saved at %s\n", authorityPath)
	return nil
}
