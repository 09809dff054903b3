package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bridge to Unichain, then claim the configured NFT",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Deposit ether into the L1 standard bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		hash, err := a.Bridge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(hash.Hex())
		return nil
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim an open-edition NFT once the account is funded",
	RunE: func(cmd *cobra.Command, args []string) error {
		nft, _ := cmd.Flags().GetString("nft")
		addr, _ := cmd.Flags().GetString("contract")

		var target common.Address
		switch {
		case addr != "":
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("invalid contract address %q", addr)
			}
			target = common.HexToAddress(addr)
		default:
			if nft == "" {
				nft = cfg.Claim.NFT
			}
			var err error
			target, err = cfg.NFTAddress(nft)
			if err != nil {
				return err
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		hash, err := a.Claim(cmd.Context(), target)
		if err != nil {
			return err
		}
		fmt.Println(hash.Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, bridgeCmd, claimCmd)
	claimCmd.Flags().String("nft", "", "registered NFT name (see nfts in config)")
	claimCmd.Flags().String("contract", "", "drop contract address, overrides --nft")
}
