package ctxutil

import (
	"context"
	"testing"
)

func TestActorFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"unset", context.Background(), DefaultActor},
		{"empty", WithActorID(context.Background(), ""), DefaultActor},
		{"set", WithActorID(context.Background(), "desk-1"), "desk-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActorFromContext(tt.ctx); got != tt.want {
				t.Errorf("ActorFromContext() = %q, want %q", got, tt.want)
			}
		})
	}
}
