package rtt

import (
	"errors"
	"io/fs"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := fs.ErrNotExist

	tests := []struct {
		name string
		kind error
	}{
		{"resource", ErrResourceCreation},
		{"shader", ErrShaderLoad},
		{"scene", ErrSceneLoad},
		{"presentation", ErrPresentation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.kind, "open", cause)
			if !errors.Is(err, tt.kind) {
				t.Errorf("errors.Is(err, kind) = false for %v", err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("errors.Is(err, cause) = false for %v", err)
			}
			for _, other := range tests {
				if other.kind != tt.kind && errors.Is(err, other.kind) {
					t.Errorf("%v also matches %v", err, other.kind)
				}
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(ErrShaderLoad, "compile", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapSameKindNotDoubled(t *testing.T) {
	inner := Wrap(ErrResourceCreation, "create texture", errors.New("out of memory"))
	outer := Wrap(ErrResourceCreation, "build attachments", inner)
	if outer != inner {
		t.Errorf("Wrap re-wrapped an error of the same kind: %v", outer)
	}

	other := Wrap(ErrPresentation, "submit", inner)
	if !errors.Is(other, ErrPresentation) || !errors.Is(other, ErrResourceCreation) {
		t.Errorf("cross-kind wrap lost a kind: %v", other)
	}
}

func TestErrorMessage(t *testing.T) {
	err := Errorf(ErrShaderLoad, "locate shaders/quad.vert.wgsl", "not found on %d paths", 3)
	want := "rtt: shader load failed: locate shaders/quad.vert.wgsl: not found on 3 paths"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &Error{Kind: ErrSceneLoad, Op: "read scene"}
	if bare.Error() != "rtt: scene load failed: read scene" {
		t.Errorf("Error() = %q", bare.Error())
	}
	if !errors.Is(bare, ErrSceneLoad) {
		t.Error("bare error does not match its kind")
	}
}
