package main

import "mlipens/internal/cli"

func main() {
	cli.Execute()
}
