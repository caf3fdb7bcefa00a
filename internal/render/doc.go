// Package render turns grids and count histories into images.
//
//   - [Frame]: one colour-mapped image per grid, with optional title and legend
//   - [Video]: an [epidemic.Observer] appending frames to an MJPEG AVI file
//   - [CurveStrip]: a small chart of the running counts drawn under frames
//   - [SaveCurves]: the compartment curves of a whole run as a PNG
//   - [SavePNG], [SaveGIF]: single snapshots and short animations
//
// All frames of a grid size share one [Layout], so a video stream never
// changes dimensions mid-run.
package render
