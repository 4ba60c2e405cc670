// Package viz draws packing runs in the terminal.
//
//   - [Canvas]: braille pixel canvas with line, circle and ellipse primitives
//   - [Model]: Bubble Tea view that compresses one step per tick and draws
//     the sub-spheres inside the boundary next to an energy chart
//   - [App]: preset picker in front of [Model]
//
// # Key Bindings
//
//	Space - Pause/Resume compression
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]    - Replay earlier frames
//
// # Recording
//
// G records the canvas into packing.gif in the current directory.
package viz
