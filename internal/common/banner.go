package common

import (
	"github.com/ternarybob/banner"
)

const appName = "Peulot"

// PrintBanner writes the startup banner for long-running commands
func PrintBanner() {
	banner.PrintSimple(appName, GetVersion())
}
