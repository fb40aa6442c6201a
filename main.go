package main

import "github.com/supereum/explorer-indexer/cmd"

func main() {
	cmd.Execute()
}
