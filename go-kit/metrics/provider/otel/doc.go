/* Copyright (c) 2018 Salesforce
 * All rights reserved.
 * Licensed under the BSD 3-Clause license.
 * For full license text, see LICENSE.txt file in the repo root  or https://opensource.org/licenses/BSD-3-Clause
 */

// Package otel adapts an OpenTelemetry SDK MeterProvider to the go-kit
// metrics Provider, exporting over OTLP (HTTP or gRPC) on a fixed collect
// period.
package otel
