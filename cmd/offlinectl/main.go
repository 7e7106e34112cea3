package main

import "github.com/zhguchie-tours/frontend/internal/cli"

func main() {
	cli.Execute()
}
