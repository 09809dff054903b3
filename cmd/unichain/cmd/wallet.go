package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Send native coin or an ERC20 token",
	RunE: func(cmd *cobra.Command, args []string) error {
		rpc, _ := cmd.Flags().GetString("rpc")
		to, _ := cmd.Flags().GetString("to")
		value, _ := cmd.Flags().GetString("amount")
		token, err := tokenFlag(cmd)
		if err != nil {
			return err
		}
		if !common.IsHexAddress(to) {
			return fmt.Errorf("invalid recipient %q", to)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		hash, err := a.Transfer(cmd.Context(), rpc, common.HexToAddress(to), value, token)
		if err != nil {
			return err
		}
		fmt.Println(hash.Hex())
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the account balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		rpc, _ := cmd.Flags().GetString("rpc")
		token, err := tokenFlag(cmd)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		bal, err := a.Balance(cmd.Context(), rpc, token)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s wei)\n", bal, bal.Wei())
		return nil
	},
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the account address",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		fmt.Println(a.Address().Hex())
		return nil
	},
}

func tokenFlag(cmd *cobra.Command) (*common.Address, error) {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		return nil, nil
	}
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address %q", token)
	}
	addr := common.HexToAddress(token)
	return &addr, nil
}

func init() {
	rootCmd.AddCommand(transferCmd, balanceCmd, addressCmd)

	transferCmd.Flags().String("rpc", "", "RPC endpoint")
	transferCmd.Flags().String("to", "", "recipient address")
	transferCmd.Flags().String("amount", "", "amount in whole units, e.g. 0.001")
	transferCmd.Flags().String("token", "", "ERC20 token address (native coin when empty)")
	_ = transferCmd.MarkFlagRequired("rpc")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("amount")

	balanceCmd.Flags().String("rpc", "", "RPC endpoint")
	balanceCmd.Flags().String("token", "", "ERC20 token address (native coin when empty)")
	_ = balanceCmd.MarkFlagRequired("rpc")
}
