// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package souk

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing configures the OpenTelemetry SDK. Spans are exported via OTLP
// over HTTP, configured through the standard OTEL_EXPORTER_OTLP_* env vars.
func (n *Node) setupTracing() error {
	ctx := context.Background()
	var shutdownFuncs []func(context.Context) error
	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined.
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)
	tracerProviderOpts := []sdktrace.TracerProviderOption{}
	if n.config.tracingStdout {
		stdoutExporter, err := stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return errors.Join(err, shutdown(ctx))
		}
		tracerProviderOpts = append(
			tracerProviderOpts,
			sdktrace.WithBatcher(stdoutExporter),
		)
	}
	httpExporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return errors.Join(err, shutdown(ctx))
	}
	tracerProviderOpts = append(
		tracerProviderOpts,
		sdktrace.WithBatcher(httpExporter),
	)
	tracerProvider := sdktrace.NewTracerProvider(tracerProviderOpts...)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)
	n.shutdownFuncs = append(n.shutdownFuncs, shutdown)
	return nil
}
