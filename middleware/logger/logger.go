// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package logger

import (
	"context"
	"log/slog"
)

type loggerCtxKey struct{}

var ctxLoggerKey loggerCtxKey

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, l)
}

// GetLogger returns the logger stored in ctx, or slog.Default() when none is set.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxLoggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// With attaches attrs to the context logger and stores the result back in ctx.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, GetLogger(ctx).With(args...))
}
