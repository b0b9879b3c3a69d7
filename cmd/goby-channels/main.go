package main

import "github.com/nfrund/goby-channels/cmd/goby-channels/cmd"

func main() {
	cmd.Execute()
}
