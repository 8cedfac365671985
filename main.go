package main

import "example.com/medfleet/services/lorry/cmd"

func main() {
	cmd.Execute()
}
