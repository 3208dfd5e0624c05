package recording

import (
	"testing"
)

func TestCommandType_String(t *testing.T) {
	tests := []struct {
		ct   CommandType
		want string
	}{
		{CmdBarrier, "Barrier"},
		{CmdBeginRenderPass, "BeginRenderPass"},
		{CmdEndRenderPass, "EndRenderPass"},
		{CmdSetPipeline, "SetPipeline"},
		{CmdSetBindGroup, "SetBindGroup"},
		{CmdSetVertexBuffer, "SetVertexBuffer"},
		{CmdSetIndexBuffer, "SetIndexBuffer"},
		{CmdDraw, "Draw"},
		{CmdDrawIndexed, "DrawIndexed"},
		{CmdWriteBuffer, "WriteBuffer"},
		{CmdWriteTexture, "WriteTexture"},
		{CommandType(254), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ct.String(); got != tt.want {
				t.Errorf("CommandType.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandTypes(t *testing.T) {
	tests := []struct {
		cmd  Command
		want CommandType
	}{
		{BarrierCommand{}, CmdBarrier},
		{BeginRenderPassCommand{}, CmdBeginRenderPass},
		{EndRenderPassCommand{}, CmdEndRenderPass},
		{SetPipelineCommand{}, CmdSetPipeline},
		{SetBindGroupCommand{}, CmdSetBindGroup},
		{SetVertexBufferCommand{}, CmdSetVertexBuffer},
		{SetIndexBufferCommand{}, CmdSetIndexBuffer},
		{DrawCommand{}, CmdDraw},
		{DrawIndexedCommand{}, CmdDrawIndexed},
		{WriteBufferCommand{}, CmdWriteBuffer},
		{WriteTextureCommand{}, CmdWriteTexture},
	}

	for _, tt := range tests {
		if got := tt.cmd.Type(); got != tt.want {
			t.Errorf("%T.Type() = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestRenderPassViews(t *testing.T) {
	_, color := newFakeTexture("color")
	_, depth := newFakeTexture("depth")

	p := RenderPass{Color: ColorAttachment{View: color}}
	if got := len(p.Views()); got != 1 {
		t.Fatalf("Views() without depth = %d, want 1", got)
	}

	p.Depth = &DepthAttachment{View: depth}
	views := p.Views()
	if len(views) != 2 || views[0] != color || views[1] != depth {
		t.Errorf("Views() = %v, want [color depth]", views)
	}
}
