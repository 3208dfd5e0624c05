package gpu

import "github.com/gogpu/gputypes"

// Usage is the access state a texture is in between commands. Barriers
// move a texture from one Usage to another; the hazard validator tracks
// the current Usage of every texture it sees.
type Usage uint8

const (
	// UsageUndefined is the state of a texture whose contents were never
	// written, or whose contents may be discarded.
	UsageUndefined Usage = iota
	// UsageRenderAttachment is written as a color or depth attachment.
	UsageRenderAttachment
	// UsageTextureBinding is read by shaders through a sampler.
	UsageTextureBinding
	// UsageCopySrc is read by copy operations.
	UsageCopySrc
	// UsageCopyDst is written by copy operations and queue uploads.
	UsageCopyDst
)

var usageNames = [...]string{
	UsageUndefined:        "Undefined",
	UsageRenderAttachment: "RenderAttachment",
	UsageTextureBinding:   "TextureBinding",
	UsageCopySrc:          "CopySrc",
	UsageCopyDst:          "CopyDst",
}

// String returns the usage name.
func (u Usage) String() string {
	if int(u) < len(usageNames) {
		return usageNames[u]
	}
	return "Unknown"
}

// TextureUsage returns the matching gputypes flag. UsageUndefined maps to 0,
// which HAL backends treat as "contents undefined".
func (u Usage) TextureUsage() gputypes.TextureUsage {
	switch u {
	case UsageRenderAttachment:
		return gputypes.TextureUsageRenderAttachment
	case UsageTextureBinding:
		return gputypes.TextureUsageTextureBinding
	case UsageCopySrc:
		return gputypes.TextureUsageCopySrc
	case UsageCopyDst:
		return gputypes.TextureUsageCopyDst
	default:
		return 0
	}
}

// Allows reports whether a texture created with flags may enter state u.
func (u Usage) Allows(flags gputypes.TextureUsage) bool {
	if u == UsageUndefined {
		return true
	}
	return flags&u.TextureUsage() != 0
}
