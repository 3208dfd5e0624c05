// Package cache provides a small thread-safe LRU cache.
//
// The assets package keeps compiled shader modules in it, keyed by a
// hash of the WGSL source, so that rebuilding a
// pipeline after a resize does not run the WGSL compiler again.
//
//	c := cache.New[string, []uint32](32)
//	c.Set("shaders/quad.vert.wgsl", words)
//	words, ok := c.Get("shaders/quad.vert.wgsl")
package cache
