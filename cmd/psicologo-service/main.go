package main

import (
	"os"

	"github.com/mat1312/psicologo/therapyservice"
)

func main() {
	if err := therapyservice.Run(); err != nil {
		os.Exit(1)
	}
}
