// cribs cleans real-estate listings and prepares stratified cross-validation folds.
//
// Usage:
//
//	cribs preprocess [--variant=<name>]
//	cribs split      [--variant=<name>] [--seed=<n>] [--folds=<k>] [--test-fraction=<f>]
//	cribs run        [--seed=<n>]
//	cribs train      [--variant=<name>]
//	cribs compare    -f <query.json> [--variant=<name>]
//	cribs report     [--variant=<name>] [-o <path>]
//	cribs serve      [--port=<n>]
package main

import (
	"fmt"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if app.closeLog != nil {
		if cerr := app.closeLog(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
