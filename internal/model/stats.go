package model

// StatDef describes one tracked stat: its code (the output column), a display label, the
// field a named-format page stores it under, and whether it counts towards Total base.
type StatDef struct {
	Code  string
	Label string
	Field string
	Base  bool
}

// StatDefs is the stat table. Order here is the canonical column order.
var StatDefs = []StatDef{
	{Code: "T", Label: "Tries", Field: "T"},
	{Code: "TS", Label: "Try Saves", Field: "TS"},
	{Code: "G", Label: "Goals", Field: "G", Base: true},
	{Code: "FG", Label: "Field Goals", Field: "FG"},
	{Code: "EFIG", Label: "Two-Point Field Goals", Field: "EFIG", Base: true},
	{Code: "TA", Label: "Try Assists", Field: "TA"},
	{Code: "LB", Label: "Line Breaks", Field: "LB"},
	{Code: "LBA", Label: "Line Break Assists", Field: "LBA"},
	{Code: "TCK", Label: "Tackles", Field: "TCK", Base: true},
	{Code: "TB", Label: "Tackle Breaks", Field: "TB", Base: true},
	{Code: "MT", Label: "Missed Tackles", Field: "MT", Base: true},
	{Code: "OFG", Label: "Offloads (Effective)", Field: "OFG", Base: true},
	{Code: "OFH", Label: "Offloads (Ineffective)", Field: "OFH", Base: true},
	{Code: "ER", Label: "Errors", Field: "ER", Base: true},
	{Code: "FTF", Label: "40/20s", Field: "FTF"},
	{Code: "MG", Label: "Metres Gained", Field: "MG", Base: true},
	{Code: "KM", Label: "Kick Metres", Field: "KM", Base: true},
	{Code: "KD", Label: "Kicks Defused", Field: "KD", Base: true},
	{Code: "PC", Label: "Penalties Conceded", Field: "PC"},
	{Code: "SB", Label: "Sin Bins", Field: "SB"},
	{Code: "SO", Label: "Send Offs", Field: "SO"},
	{Code: "FDO", Label: "Forced Drop Outs", Field: "FDO", Base: true},
	// Older page variants read TOG from the tries field; it has its own field here.
	{Code: "TOG", Label: "Time On Ground", Field: "TOG"},
}

// BaseCodes returns the stat codes summed into Total base, in table order.
func BaseCodes() []string {
	var out []string
	for _, d := range StatDefs {
		if d.Base {
			out = append(out, d.Code)
		}
	}
	return out
}

// LookupStat finds a stat definition by code.
func LookupStat(code string) (StatDef, bool) {
	for _, d := range StatDefs {
		if d.Code == code {
			return d, true
		}
	}
	return StatDef{}, false
}

// CanonicalHeaders is the fixed column prefix some runs seed the header set with.
func CanonicalHeaders() []string {
	out := FixedColumns()
	for _, d := range StatDefs {
		out = append(out, d.Code)
	}
	return out
}
