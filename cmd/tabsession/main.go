package main

import "github.com/aussiebroadwan/tabsession/cmd/tabsession/cmd"

func main() {
	cmd.Execute()
}
