package main

import "solecart/cmd/cartctl/cmd"

func main() {
	cmd.Execute()
}
