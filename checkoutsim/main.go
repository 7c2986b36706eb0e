// Command checkoutsim simulates a self-checkout kiosk on the event engine.
package main

import "github.com/sarchlab/eventsim/checkoutsim/cmd"

func main() {
	cmd.Execute()
}
