// Package address implements the KNX individual and group address model.
//
// An IndividualAddress identifies a physical device on the bus
// (area.line.device). A GroupAddress identifies a many-to-many
// communication object and may be written and read in three textual
// forms: three-level (main/middle/sub), two-level (main/sub) or free
// (a flat 0..65535 integer). String always uses the three-level form;
// FormatStyle takes the form as a Style argument. The textual form never
// changes which 16-bit value an address represents.
package address
