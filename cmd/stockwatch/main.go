package main

import "stock-risk-alerts/internal/cli"

func main() {
	cli.Execute()
}
