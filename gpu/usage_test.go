package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestUsage(t *testing.T) {
	tests := []struct {
		u     Usage
		name  string
		flags gputypes.TextureUsage
	}{
		{UsageUndefined, "Undefined", 0},
		{UsageRenderAttachment, "RenderAttachment", gputypes.TextureUsageRenderAttachment},
		{UsageTextureBinding, "TextureBinding", gputypes.TextureUsageTextureBinding},
		{UsageCopySrc, "CopySrc", gputypes.TextureUsageCopySrc},
		{UsageCopyDst, "CopyDst", gputypes.TextureUsageCopyDst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.u.TextureUsage(); got != tt.flags {
				t.Errorf("TextureUsage() = %v, want %v", got, tt.flags)
			}
		})
	}

	if got := Usage(99).String(); got != "Unknown" {
		t.Errorf("String() = %q, want Unknown", got)
	}
}

func TestUsageAllows(t *testing.T) {
	color := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc
	depth := gputypes.TextureUsageRenderAttachment

	if !UsageTextureBinding.Allows(color) {
		t.Error("color texture should allow TextureBinding")
	}
	if UsageTextureBinding.Allows(depth) {
		t.Error("depth texture should not allow TextureBinding")
	}
	if !UsageUndefined.Allows(depth) {
		t.Error("Undefined is always allowed")
	}
}
