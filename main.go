package main

import "github.com/AnnaCarter465/tax-advisor/cmd"

func main() {
	cmd.Execute()
}
