// Command procsim runs process network simulations from the command line.
package main

import "github.com/procsim/procsim/cmd"

func main() {
	cmd.Execute()
}
