// Package viz renders designs in the terminal.
//
//   - [FormatMatrix]: aligned, sign-colored matrix output
//   - [Report]: summary panel for an LQR design
//   - [PlotResponse]: asciigraph plot of a closed-loop run
//   - [Tuner]: Bubble Tea app that rescales Q and R and re-solves live
//
// # Tuner Key Bindings
//
//	↑/↓ or k/j - Select Q or R
//	←/→ or h/l - Halve or double the selected weight
//	0          - Reset both scales
//	n          - Next plotted state
//	q          - Quit
package viz
