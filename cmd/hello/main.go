package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"ga4export/internal/handlers"
)

func main() {
	lambda.Start(handlers.Greeting)
}
