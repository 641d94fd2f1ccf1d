package main

import "github.com/horizonlabs/horizon-chat/cmd"

func main() {
	cmd.Execute()
}
