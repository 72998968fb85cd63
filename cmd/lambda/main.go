// Command lambda runs the BQL HTTP service behind API Gateway v2. Grounded
// on the teacher's cmd/lambda/main.go cold-start/init() shape (build once
// at init, reuse across warm invocations); the JWT-authorizer-claims
// extraction the teacher's Handler did before proxying is not carried
// forward — auth is out of scope here (the surrounding tool-hosting
// runtime owns it).
package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bql/infrastructure/config"
	"bql/infrastructure/container"
	"bql/interfaces/http/rest"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	c         *container.Container

	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()
	log.Println("lambda cold start initiated")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	c, err = container.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}

	router := rest.NewRouter(c.Engine, c.Logger)
	if c.Registry != nil {
		router.WithMetrics(c.Registry)
	}
	handler := router.Setup()

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler proxies one API Gateway v2 request through the chi router.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	c.Logger.Info("lambda received request",
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("request_id", req.RequestContext.RequestID),
	)

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID

	c.Logger.Info("lambda response",
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
	)

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
