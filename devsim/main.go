// Command devsim runs DEVS experiments from the command line.
package main

import "github.com/sarchlab/devs/devsim/cmd"

func main() {
	cmd.Execute()
}
