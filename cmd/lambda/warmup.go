package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"
)

const (
	// WarmupSource identifies scheduled warmup events.
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the
	// self-invocations to land on other instances.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the scheduled warmup payload.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned for warmup events.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// Invoker is the part of the Lambda client used for self-invocation.
type Invoker interface {
	Invoke(ctx context.Context, in *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// IsWarmupEvent reports whether event is a warmup event.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var fields map[string]any
	if err := json.Unmarshal(event, &fields); err != nil {
		return nil, false
	}

	source, ok := fields["source"].(string)
	if !ok || source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: source}
	if concurrency, ok := fields["concurrency"].(float64); ok && concurrency > 0 {
		warmup.Concurrency = int(concurrency)
	}
	return warmup, true
}

// Warmer answers warmup events and fans out to extra instances.
type Warmer struct {
	functionName string
	newInvoker   func(ctx context.Context) (Invoker, error)
	delay        time.Duration
	logger       *zap.Logger
}

// NewWarmer creates a Warmer that self-invokes functionName through the AWS SDK.
func NewWarmer(functionName string, logger *zap.Logger) *Warmer {
	return &Warmer{
		functionName: functionName,
		newInvoker:   defaultInvoker,
		delay:        WarmupDelay,
		logger:       logger.Named("warmup"),
	}
}

func defaultInvoker(ctx context.Context) (Invoker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return lambdasdk.NewFromConfig(cfg), nil
}

// Handle answers warmup and, when Concurrency > 0, invokes the function that
// many more times asynchronously.
func (w *Warmer) Handle(ctx context.Context, warmup *WarmupEvent) WarmupResponse {
	warmed := 1

	if warmup.Concurrency > 0 {
		if w.functionName == "" {
			w.logger.Warn("Skipping self-invocation: function name unknown")
		} else if err := w.selfInvoke(ctx, warmup.Concurrency); err != nil {
			w.logger.Warn("Self-invocation failed", zap.Error(err))
		} else {
			warmed += warmup.Concurrency
		}
	}

	time.Sleep(w.delay)

	w.logger.Debug("Warmup handled", zap.Int("instances_warmed", warmed))
	return WarmupResponse{Status: "warm", InstancesWarmed: warmed}
}

func (w *Warmer) selfInvoke(ctx context.Context, count int) error {
	client, err := w.newInvoker(ctx)
	if err != nil {
		return err
	}

	// Children get concurrency 0 so they do not fan out again.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}
