package main

import "github.com/andrescamacho/shippingmanager-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
