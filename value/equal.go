package value

// Equal reports whether a and b represent the same logical value. Used by
// round-trip tests to compare a thawed Value against the original.
//
// Time values compare via time.Time.Equal (ignoring monotonic reading and
// location), matching how timestamps round-trip through epoch integers.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindChar:
		return a.i == b.i
	case KindInt:
		if a.big != nil || b.big != nil {
			if a.big == nil || b.big == nil {
				return bigIntEqualsInt64(a, b)
			}

			return a.big.Cmp(b.big) == 0
		}

		return a.i == b.i
	case KindFloat32:
		return a.f32 == b.f32
	case KindFloat64:
		return a.f64 == b.f64
	case KindDecimal:
		return a.dec.Cmp(b.dec) == 0
	case KindRational:
		return a.num.Cmp(b.num) == 0 && a.den.Cmp(b.den) == 0
	case KindBytes:
		return bytesEqual(a.bytes, b.bytes)
	case KindString:
		return a.str == b.str
	case KindName:
		return a.name == b.name
	case KindList, KindVector, KindSet, KindSortedSet, KindQueue:
		return itemsEqual(a.items, b.items)
	case KindMap, KindSortedMap:
		return entriesEqual(a.entries, b.entries)
	case KindRecord:
		return recordEqual(a.record, b.record)
	case KindCalendarDate, KindInstant:
		return a.ts.Equal(b.ts)
	case KindDuration:
		return a.dur == b.dur
	case KindUUID:
		return a.uid == b.uid
	case KindOpaque:
		return a.opaque.Class == b.opaque.Class && bytesEqual(a.opaque.Data, b.opaque.Data)
	case KindQuarantined:
		return a.quarantined.Class == b.quarantined.Class && bytesEqual(a.quarantined.Raw, b.quarantined.Raw)
	case KindUnthawable:
		return a.unthawable.Kind == b.unthawable.Kind
	case KindCustom:
		return true // custom equality is the caller's responsibility
	default:
		return false
	}
}

func bigIntEqualsInt64(a, b Value) bool {
	// one side is a plain int64, the other an arbitrary-precision big.Int;
	// equal iff the big.Int fits in int64 and matches.
	bi, i := a.big, a.i
	if bi == nil {
		bi, i = b.big, b.i
	}

	if !bi.IsInt64() {
		return false
	}

	return bi.Int64() == i
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func itemsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

func entriesEqual(a, b []MapEntry) bool {
	if len(a) != len(b) {
		return false
	}

	// Unordered maps make no promise about iteration order surviving a
	// round trip, so compare as multisets of key/value pairs.
	used := make([]bool, len(b))
	for _, ea := range a {
		matched := false

		for j, eb := range b {
			if used[j] {
				continue
			}

			if Equal(ea.Key, eb.Key) && Equal(ea.Val, eb.Val) {
				used[j] = true
				matched = true

				break
			}
		}

		if !matched {
			return false
		}
	}

	return true
}

func recordEqual(a, b *Record) bool {
	if a.TypeName != b.TypeName {
		return false
	}

	return entriesEqual(a.Fields, b.Fields)
}
