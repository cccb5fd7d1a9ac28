// Package output provides utilities for formatting and displaying calculator
// snapshots.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/hp12c/internal/calculator"
	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/format"
)

var stackNames = [constants.StackSize]string{"X", "Y", "Z", "T"}

// PrettyFormat outputs a human-readable rather than machine-readable view of
// the calculator.
func PrettyFormat(snap calculator.Snapshot, f *format.Formatter) {
	WritePretty(os.Stdout, snap, f)
}

// WritePretty writes the display, the stack from T down to X, lastX, the
// financial registers and any non-zero storage registers. Registers are
// formatted with f at the display precision; a nil f prints raw numbers.
func WritePretty(w io.Writer, snap calculator.Snapshot, f *format.Formatter) {
	value := func(v float64) string {
		return f.Format(v, snap.Precision)
	}

	if !snap.On {
		_, _ = fmt.Fprintf(w, "Display: (off)\n")
		return
	}
	_, _ = fmt.Fprintf(w, "Display: %s\n", snap.Display)
	if snap.Shift != calculator.ShiftNone.String() || snap.Pending != "" {
		_, _ = fmt.Fprintf(w, "Annunciators: shift=%s pending=%s\n", snap.Shift, snap.Pending)
	}
	_, _ = fmt.Fprintf(w, "Reg  | Value\n")
	_, _ = fmt.Fprintf(w, "___  | _____\n")
	for i := constants.StackSize - 1; i >= 0; i-- {
		_, _ = fmt.Fprintf(w, "%-4s | %s\n", stackNames[i], value(float64(snap.Stack[i])))
	}
	_, _ = fmt.Fprintf(w, "%-4s | %s\n", "LSTx", value(float64(snap.LastX)))

	m := snap.Memory
	_, _ = fmt.Fprintf(w, "n %s | i %s | PV %s | PMT %s | FV %s\n",
		value(m.N), value(m.I), value(m.PV), value(m.PMT), value(m.FV))
	for i, r := range snap.Registers {
		if r != 0 {
			_, _ = fmt.Fprintf(w, "R%d   | %s\n", i, value(r))
		}
	}
}

// JSONFormat outputs the snapshot as indented JSON.
func JSONFormat(snap calculator.Snapshot) error {
	return WriteJSON(os.Stdout, snap)
}

// WriteJSON encodes snap to w as indented JSON. The error sentinel encodes
// as null.
func WriteJSON(w io.Writer, snap calculator.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Write renders snap in the named format.
func Write(w io.Writer, outputFormat string, snap calculator.Snapshot, f *format.Formatter) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return WriteJSON(w, snap)
	case constants.OutputFormatPretty, "":
		WritePretty(w, snap, f)
		return nil
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}
