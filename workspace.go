package goident

// WorkspaceSize is the scratch requirement of one kernel call.
type WorkspaceSize struct {
	Int   int
	Float int
	Bool  int
}

// Workspace is the scratch handed to a kernel. It is owned by one call and
// never shared between goroutines.
type Workspace struct {
	IWork []int
	DWork []float64
	BWork []bool
}

// Alloc allocates a Workspace of this size. Negative sizes are treated as zero.
func (s WorkspaceSize) Alloc() Workspace {
	return Workspace{
		IWork: make([]int, max(s.Int, 0)),
		DWork: make([]float64, max(s.Float, 0)),
		BWork: make([]bool, max(s.Bool, 0)),
	}
}

// Covers returns whether w is at least as large as s in every kind.
func (w Workspace) Covers(s WorkspaceSize) bool {
	return len(w.IWork) >= s.Int && len(w.DWork) >= s.Float && len(w.BWork) >= s.Bool
}

// FactorSize returns the order 2(m+l)nobr of the square factor R.
func FactorSize(m, l, nobr int) int {
	return 2 * (m + l) * nobr
}

// FactorRows returns the number of rows allocated for R before preprocessing.
// MOESP keeps extra rows to later estimate B and D.
func FactorRows(m, l, nobr int, modes Modes) int {
	if modes.Preprocess == MethodMOESP && modes.Job == DataJobMOESP {
		return max(FactorSize(m, l, nobr), 3*m*nobr)
	}
	return FactorSize(m, l, nobr)
}

// MinSamples returns the minimum number of samples of an experiment with the given tag.
func MinSamples(m, l, nobr int, tag BatchTag) int {
	if tag == BatchOnly {
		return 2*(m+l+1)*nobr - 1
	}
	return 2 * nobr
}

// PreprocessWorkspace sizes the scratch of one preprocessing call on an
// experiment of nsmp samples, with ldr the number of rows of R.
func PreprocessWorkspace(m, l, nobr, nsmp, ldr int, modes Modes, batch BatchTag) WorkspaceSize {
	ws := WorkspaceSize{Int: preprocessIntSize(m, l, nobr, modes)}
	ws.Float, _ = preprocessFloatSize(m, l, nobr, nsmp, ldr, modes, batch)
	ns := nsmp - 2*nobr + 1
	// Near optimal efficiency for the QR path, also the floor of every other path.
	ws.Float = max(ws.Float, (ns+2)*FactorSize(m, l, nobr))
	return ws
}

func preprocessIntSize(m, l, nobr int, modes Modes) int {
	switch {
	case modes.Preprocess == MethodN4SID:
		return (m + l) * nobr
	case modes.Algorithm == AlgFastQR:
		return m + l
	}
	return 0
}

// preprocessFloatSize returns the float size before the floor is applied, and
// the name of the case it was computed by.
func preprocessFloatSize(m, l, nobr, nsmp, ldr int, modes Modes, batch BatchTag) (int, string) {
	ns := nsmp - 2*nobr + 1
	conct := modes.Connection == Connected
	switch modes.Algorithm {
	case AlgCholesky:
		switch {
		case batch == BatchFirst || batch == BatchIntermediate:
			if conct {
				return (4*nobr - 2) * (m + l), "cholesky/sequential/connected"
			}
			return 1, "cholesky/sequential"
		case modes.Preprocess == MethodMOESP:
			switch {
			case conct && batch == BatchLast:
				return max((4*nobr-2)*(m+l), 5*l*nobr), "cholesky/moesp/last/connected"
			case modes.Job == DataJobMOESP:
				return max((2*m-1)*nobr, (m+l)*nobr, 5*l*nobr), "cholesky/moesp/job-m"
			}
			return 5 * l * nobr, "cholesky/moesp/job-n"
		}
		return 5*(m+l)*nobr + 1, "cholesky/n4sid"
	case AlgFastQR:
		switch {
		case batch != BatchOnly && conct:
			return (m + l) * 2 * nobr * (m + l + 3), "fast/connected"
		case batch == BatchFirst || batch == BatchIntermediate:
			return (m + l) * 2 * nobr * (m + l + 1), "fast/sequential"
		}
		return (m+l)*4*nobr*(m+l+1) + (m+l)*2*nobr, "fast/final"
	}
	switch {
	case ldr >= ns && batch == BatchFirst:
		return 4 * (m + l) * nobr, "qr/first/short"
	case ldr >= ns && batch == BatchOnly:
		if modes.Preprocess == MethodMOESP {
			return max(4*(m+l)*nobr, 5*l*nobr), "qr/only/short/moesp"
		}
		return 5*(m+l)*nobr + 1, "qr/only/short/n4sid"
	case conct && (batch == BatchIntermediate || batch == BatchLast):
		return 4 * (nobr + 1) * (m + l) * nobr, "qr/sequential/connected"
	}
	return 6 * (m + l) * nobr, "qr/long"
}

// QRChunkRows returns the number of data rows the QR path can stage at once in a
// float workspace of the given length.
func QRChunkRows(m, l, nobr, ldwork int) int {
	return max(ldwork/FactorSize(m, l, nobr)-2, 1)
}

// EstimateWorkspace sizes the scratch of the realization call.
func EstimateWorkspace(m, l, nobr, n int, method Method) WorkspaceSize {
	liw1 := max(n, m*nobr+n, l*nobr, m*(n+l))
	liw2 := n * n
	lnobr := l * nobr
	mnobr := m * nobr

	var ldw1, ldw2 int
	switch method {
	case MethodMOESP:
		ldw1a := max(2*(lnobr-l)*n+2*n, (lnobr-l)*n+n*n+7*n)
		ldw1b := max(2*(lnobr-l)*n+n*n+7*n,
			(lnobr-l)*n+n+6*mnobr,
			(lnobr-l)*n+n+max(l+mnobr, lnobr+max(3*lnobr+1, m)))
		ldw1 = max(ldw1a, ldw1b)
		aw := 0
		if m == 0 {
			aw = n + n*n
		}
		ldw2 = lnobr*n + max((lnobr-l)*n+aw+2*n+max(5*n, (2*m+l)*nobr+l), 4*(mnobr+n)+1, mnobr+2*n+l)
	case MethodN4SID:
		ldw1 = lnobr*n + max((lnobr-l)*n+2*n+(2*m+l)*nobr+l,
			2*(lnobr-l)*n+n*n+8*n,
			n+4*(mnobr+n)+1,
			mnobr+3*n+l)
		if m > 0 {
			ldw2 = lnobr*n + mnobr*(n+l)*(m*(n+l)+1) + max((n+l)*(n+l), 4*m*(n+l)+1)
		}
	default:
		ldw1a := max(2*(lnobr-l)*n+2*n, (lnobr-l)*n+n*n+7*n)
		ldw1b := lnobr*n + max((lnobr-l)*n+2*n+(2*m+l)*nobr+l,
			2*(lnobr-l)*n+n*n+8*n,
			n+4*(mnobr+n)+1,
			mnobr+3*n+l)
		ldw1 = max(ldw1a, ldw1b)
		ldw2 = lnobr*n + mnobr*(n+l)*(m*(n+l)+1) + max((n+l)*(n+l), 4*m*(n+l)+1)
	}
	ldw3 := max(4*n*n+2*n*l+l*l+max(3*l, n*l), 14*n*n+12*n+5)
	return WorkspaceSize{
		Int:   max(liw1, liw2),
		Float: max(ldw1, ldw2, ldw3),
		Bool:  2 * n,
	}
}

// InitialStateWorkspace sizes the scratch of one initial state call on an experiment of nsmp samples.
func InitialStateWorkspace(m, l, n, nsmp int) WorkspaceSize {
	const ldw1 = 2
	ldw2 := initialStateDirectSize(l, n, nsmp)
	ldw3 := n*(n+1) + 2*n + max(n*l*(n+1)+2*n*n+l*n, 4*n)
	return WorkspaceSize{
		Int:   n,
		Float: ldw1 + n*(n+m+l) + max(5*n, ldw1, min(ldw2, ldw3)),
	}
}

// initialStateDirectSize is the float size needed to hold the whole
// observability regressor of an experiment at once.
func initialStateDirectSize(l, n, nsmp int) int {
	return nsmp*l*(n+1) + 2*n + max(2*n*n, 4*n)
}

// PlaceWorkspace sizes the scratch of a pole placement call.
func PlaceWorkspace(n, m int) WorkspaceSize {
	return WorkspaceSize{Float: max(1, 5*m, 5*n, 2*n+4*m)}
}

// HinfWorkspace sizes the scratch of a discrete H-infinity synthesis call.
func HinfWorkspace(n, m, np, ncon, nmeas int) WorkspaceSize {
	m2 := ncon
	m1 := m - m2
	np2 := nmeas
	np1 := np - np2
	q := max(m1, m2, np1, np2)
	return WorkspaceSize{
		Int: max(2*max(m2, n), m, m2+np2, n*n),
		Float: max((n+q)*(n+q+6),
			13*n*n+m*m+2*q*q+n*(m+q)+max(m*(m+7*n), 2*q*(8*n+m+2*q))+6*n+
				max(14*n+23, 16*n, 2*n+max(m, 2*q), 3*max(m, 2*q))),
		Bool: 2 * n,
	}
}

// NCFWorkspace sizes the scratch of a normalized coprime factor synthesis call.
func NCFWorkspace(n, m, np int) WorkspaceSize {
	return WorkspaceSize{
		Int: 2 * max(n, m+np),
		Float: 16*n*n + 5*m*m + 7*np*np + 6*m*n + 7*m*np + 7*n*np + 6*n + 2*(m+np) +
			max(14*n+23, 16*n, 2*m-1, 2*np-1),
		Bool: 2 * n,
	}
}

// ConredWorkspace sizes the scratch of a coprime factor controller reduction call.
func ConredWorkspace(n, m, p int, modes ConredModes) WorkspaceSize {
	var ws WorkspaceSize
	if modes.Method == ReduceBalanceFree {
		ws.Int = n
	}
	mp := m
	if modes.RightSide {
		mp = p
	}
	ws.Float = 2*n*n + max(1, 2*n*n+5*n, n*max(m, p), n*(n+max(n, mp)+min(n, mp)+6))
	return ws
}

// LyapWorkspace sizes the scratch of a generalized Lyapunov solve.
func LyapWorkspace(n int) WorkspaceSize {
	return WorkspaceSize{Float: max(1, 4*n)}
}
