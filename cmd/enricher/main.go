package main

import (
	"github.com/DRSN-tech/catalog-enricher/internal/app"
)

func main() {
	app.RunEnricher()
}
