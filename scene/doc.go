// Package scene loads the optional input scene drawn into the offscreen
// target.
//
// A scene file is YAML holding a list of triangle meshes:
//
//	meshes:
//	  - name: floor
//	    positions: [[-1, -1, 0], [1, -1, 0], [1, 1, 0], [-1, 1, 0]]
//	    colors:    [[0.8, 0.8, 0.8], [0.8, 0.8, 0.8], [0.8, 0.8, 0.8], [0.8, 0.8, 0.8]]
//	    indices:   [0, 1, 2, 2, 3, 0]
//	    translate: [0, 0, -0.5]
//
// Colors default to white and indices default to one triangle per three
// positions. Load failures match rtt.ErrSceneLoad; callers continue with
// an empty scene.
package scene
