package main

import (
	"github.com/Legendtss/price-tracker/cmd/pricetracker/commands"
	"github.com/Legendtss/price-tracker/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
