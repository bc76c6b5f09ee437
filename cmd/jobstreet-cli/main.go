package main

import (
	"jobstreet-applied/cmd/jobstreet-cli/commands"
	"jobstreet-applied/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
