package main

import "seocoach-backend/internal/cli"

func main() {
	cli.Execute()
}
