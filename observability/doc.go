// Package observability provides a metrics extension that translates
// Batchflow lifecycle events into OpenTelemetry instruments. Register it
// with the registry:
//
//	reg, err := batchflow.New(
//	    batchflow.WithExtension(observability.NewMetricsExtension()),
//	)
//
// With no MeterProvider configured the instruments are noops and the
// extension costs nothing.
package observability
