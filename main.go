package main

import "github.com/privymarket/settlement/cmd"

func main() {
	cmd.Execute()
}
