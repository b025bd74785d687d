// Package main is the AWS Lambda entry point for the translation desk API.
// It accepts API Gateway v2 / function URL events and scheduled warmup events.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/config"
	"github.com/pricofy/translation-desk/internal/handler"
	"github.com/pricofy/translation-desk/internal/logging"
	"github.com/pricofy/translation-desk/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	fn := &function{
		router: router.New(handler.New(cfg, logger), logger),
		warmer: NewWarmer(cfg.FunctionName, logger),
		logger: logger,
	}

	logger.Info("Lambda handler ready", zap.String("env", cfg.Environment))
	lambda.Start(fn.handleRequest)
}

type function struct {
	router *router.Router
	warmer *Warmer
	logger *zap.Logger
}

func (f *function) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	// Warmup detection runs before any other processing.
	if warmup, ok := IsWarmupEvent(event); ok {
		resp := f.warmer.Handle(ctx, warmup)
		return map[string]any{"statusCode": http.StatusOK, "body": resp}, nil
	}

	var req events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	in, err := toRequest(req)
	if err != nil {
		f.logger.Warn("Rejected malformed event", zap.Error(err))
		return toResponse(handler.JSON(http.StatusBadRequest, handler.ErrorBody{Error: "Invalid request body"})), nil
	}

	return toResponse(f.router.Dispatch(ctx, in)), nil
}

// toRequest converts an API Gateway v2 event into a handler request.
func toRequest(ev events.APIGatewayV2HTTPRequest) (*handler.Request, error) {
	headers := http.Header{}
	for k, v := range ev.Headers {
		headers.Set(k, v)
	}

	query := url.Values{}
	if ev.RawQueryString != "" {
		parsed, err := url.ParseQuery(ev.RawQueryString)
		if err == nil {
			query = parsed
		}
	}
	for k, v := range ev.QueryStringParameters {
		if query.Get(k) == "" {
			query.Set(k, v)
		}
	}

	body := []byte(ev.Body)
	if ev.IsBase64Encoded && ev.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = decoded
	}

	path := ev.RawPath
	if path == "" {
		path = ev.RequestContext.HTTP.Path
	}

	requestID := ev.RequestContext.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &handler.Request{
		Method:    strings.ToUpper(ev.RequestContext.HTTP.Method),
		Path:      path,
		Headers:   headers,
		Query:     query,
		Body:      body,
		RequestID: requestID,
	}, nil
}

func toResponse(resp *handler.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(resp.Body),
	}
}
