package main

import "github.com/vietddude/ledger/internal/cli"

func main() {
	cli.Execute()
}
