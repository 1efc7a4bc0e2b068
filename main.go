package main

import (
	"github.com/deviceops/go-fscrypt/cmd"
)

func main() {
	cmd.Execute()
}
