package main

import "github.com/maksim44m/unichain-testnet-nft/cmd/unichain/cmd"

func main() {
	cmd.Execute()
}
