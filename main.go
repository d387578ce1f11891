package main

import "github.com/scrubward/scrubward/cmd/scrubward"

func main() { scrubward.Execute() }
