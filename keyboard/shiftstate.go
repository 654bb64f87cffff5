package keyboard

// ShiftState is the visual shift sub-state of a layout.
type ShiftState int

const (
	ShiftNormal ShiftState = iota
	ShiftManual
	ShiftManualFromAuto
	ShiftAuto
	ShiftLocked
	ShiftLockShifted
)

var shiftStateNames = [...]string{"normal", "manual", "manual-from-auto", "auto", "locked", "lock-shifted"}

func (s ShiftState) String() string {
	if s < 0 || int(s) >= len(shiftStateNames) {
		return "unknown"
	}
	return shiftStateNames[s]
}

// setShifted applies a manual shift change and reports whether the state moved.
func (s *ShiftState) setShifted(shifted bool) bool {
	old := *s
	if shifted {
		switch old {
		case ShiftNormal:
			*s = ShiftManual
		case ShiftAuto:
			*s = ShiftManualFromAuto
		case ShiftLocked:
			*s = ShiftLockShifted
		}
	} else {
		switch old {
		case ShiftManual, ShiftManualFromAuto, ShiftAuto:
			*s = ShiftNormal
		case ShiftLockShifted:
			*s = ShiftLocked
		}
	}
	return *s != old
}

func (s *ShiftState) setShiftLocked(locked bool) bool {
	old := *s
	if locked {
		switch old {
		case ShiftNormal, ShiftManual, ShiftManualFromAuto, ShiftAuto:
			*s = ShiftLocked
		}
	} else {
		switch old {
		case ShiftLocked, ShiftLockShifted:
			*s = ShiftNormal
		}
	}
	return *s != old
}

func (s ShiftState) isShiftLocked() bool {
	return s == ShiftLocked || s == ShiftLockShifted
}

func (s ShiftState) isManualTemporaryUpperCase() bool {
	return s == ShiftManual || s == ShiftManualFromAuto || s == ShiftLockShifted
}
