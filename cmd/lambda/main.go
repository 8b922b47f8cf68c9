package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"

	"shunya-backend/internal/config"
	"shunya-backend/internal/logger"
	"shunya-backend/internal/router"
)

var adapter *chiadapter.ChiLambda

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logger.L().Fatalf("config: %v", err)
	}
	logger.Init(cfg.LogLevel, "json")

	adapter = chiadapter.New(router.NewDefault(cfg))
	lambda.Start(handler)
}
