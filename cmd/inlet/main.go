package main

import (
	"github.com/inlet-data/inlet/protocol"
)

func main() {
	protocol.Execute()
}
