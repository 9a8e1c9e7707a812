package testutil

import (
	"context"
	"time"

	"meridian/pkg/requestcontext"
)

// FixedTime is the pinned request time used across service tests.
var FixedTime = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

// Context returns a background context with a pinned request time and actor.
func Context() context.Context {
	ctx := requestcontext.WithTime(context.Background(), FixedTime)
	return requestcontext.WithActorID(ctx, "consultant-1")
}
