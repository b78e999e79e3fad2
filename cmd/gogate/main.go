// Command gogate runs the access gate HTTP service and its local tooling.
package main

import "github.com/MrEthical07/goGate/internal/cli"

func main() {
	cli.Execute()
}
