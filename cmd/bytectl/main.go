// Command bytectl inspects and adjusts byte balances from an operator shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
