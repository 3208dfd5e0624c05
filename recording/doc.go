// Package recording captures GPU work as typed commands and plays it back
// into a Backend.
//
// The system follows a Command Pattern with three main components:
//
//   - Recorder: captures barriers, render passes, state and draws
//   - Recording: stores the commands for playback into one command buffer
//   - Backend: a gpu.Device that executes recordings
//
// Recording does not touch the device, so several Recorders can run on
// several goroutines while the playback into the Backend happens on one:
//
//	rec := recording.NewRecorder("offscreen")
//	target.Record(rec, frame)
//	r, err := rec.Finish()
//	if err != nil {
//	    return err
//	}
//	if err := r.Playback(backend); err != nil {
//	    return err
//	}
//	return backend.Submit()
//
// # Uploads
//
// WriteBuffer and WriteTexture are staged in the Recording and applied
// when it is played back, before any of its encoded commands. Uploads of
// one Recording are applied in the order they were recorded.
//
// # Backend Registration
//
// Backends register themselves by name, following the database/sql driver
// pattern:
//
//	import _ "github.com/gogpu/rtt/backend/software"
//
//	b, err := recording.NewBackend("software")
//
// # Validation
//
// Validator wraps a Backend and tracks texture usage across barriers and
// render passes. Tests use it to prove that removing either dependency of
// the offscreen pass produces hazards.
package recording
