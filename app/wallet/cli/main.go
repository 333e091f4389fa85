// This program is the wallet for the node. It manages the key pair of an
// account and talks to the node's web api.
package main

import "github.com/jdforsythe/bloch/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
