package main

import (
	"context"

	"github.com/dmitrijs2005/omniguard/internal/admin"
)

func main() {
	admin.Execute(context.Background())
}
