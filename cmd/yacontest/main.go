package main

import (
	"yacontest/cmd/yacontest/commands"
	"yacontest/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
