package broadcast

// Quality classifies the aggregate connection health of a broadcast.
type Quality int

const (
	QualityDisconnected Quality = iota
	QualityPoor
	QualityGood
	QualityExcellent
)

func (q Quality) String() string {
	switch q {
	case QualityDisconnected:
		return "disconnected"
	case QualityPoor:
		return "poor"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// goodRatio is the connected/total ratio above which (strictly) a partially
// connected broadcast counts as good. With small viewer counts this is
// deliberately conservative: 2 of 3 connected is 0.667 and classifies poor.
const goodRatio = 0.7

// ClassifyQuality derives the broadcast-wide quality from the current
// connected and total peer counts. It is a pure function; the caller
// recomputes it after every peer add, remove, or state transition.
func ClassifyQuality(connected, total int) Quality {
	switch {
	case total == 0:
		return QualityDisconnected
	case connected == total:
		return QualityExcellent
	case float64(connected)/float64(total) > goodRatio:
		return QualityGood
	default:
		return QualityPoor
	}
}
