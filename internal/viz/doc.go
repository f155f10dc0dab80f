// Package viz is the terminal front-end for iterated maps.
//
// [App] is a Bubble Tea program with three views:
//
//   - a menu of every known map plus the diffusion walk
//   - an explorer for the chosen map: [OrbitModel] for standard maps,
//     [ImageModel] for image permutations, [WalkModel] for diffusion
//   - a log tab fed from a [logbus.Queue]
//
// Orbits are drawn on a braille [Canvas], two by four dots per character,
// one pen colour per orbit.
//
// # Key Bindings
//
//	esc   - back to the menu
//	L     - toggle the log tab
//	t     - cycle colour themes
//	?     - help (orbit explorer)
//	g     - toggle GIF recording
package viz
