// Command userlocale runs the per-user display language service and its
// maintenance commands.
//
//	userlocale serve                                  # HTTP server
//	userlocale locales                                # installed locales
//	userlocale preference get --user alice            # stored preference
//	userlocale preference set --user alice --locale de_DE
//	userlocale user role --login alice --role administrator
//	userlocale user delete --login alice
//
// All settings come from USERLOCALE_* environment variables.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
