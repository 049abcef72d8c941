package main

import "comfortcast/cli"

func main() {
	cli.Execute()
}
