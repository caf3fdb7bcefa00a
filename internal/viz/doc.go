// Package viz shows a running epidemic in the terminal.
//
//   - [Model]: a Bubble Tea model stepping a simulator on a timer
//   - [App]: a preset picker in front of [Model]
//   - [Canvas]: half-block rendering of a downsampled grid
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Reset to a freshly initialized grid
//	G     - Toggle GIF recording
//	T     - Cycle themes
//	Q     - Quit
package viz
